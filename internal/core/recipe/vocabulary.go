package recipe

import "sort"

// Vocabulary 正規化時要剔除的詞彙表，建立後唯讀
type Vocabulary struct {
	descriptors map[string]struct{}
	units       map[string]struct{}
	nounUnits   map[string]struct{}
	compounds   [][]string
}

// 形容詞／描述詞：新鮮度、切法、烹調方式、口感、飲食標籤
var defaultDescriptors = []string{
	// freshness / state
	"fresh", "freshly", "frozen", "thawed", "canned", "dried", "dry", "raw", "ripe", "overripe",
	"unripe", "cold", "warm", "hot", "chilled", "room", "temperature", "leftover", "day", "old",
	"stale", "instant", "quick", "fresh-squeezed", "squeezed",
	// cut / size
	"chopped", "finely", "coarsely", "roughly", "thinly", "thickly", "minced", "diced", "cubed",
	"sliced", "shredded", "grated", "julienned", "halved", "quartered", "crushed", "ground",
	"mashed", "pureed", "torn", "trimmed", "cut", "into", "pieces", "piece", "chunks", "strips",
	"wedges", "rings", "small", "medium", "large", "extra", "jumbo", "big", "thick", "thin",
	"whole", "half", "halves", "bite", "sized", "size",
	// preparation
	"peeled", "unpeeled", "seeded", "deseeded", "pitted", "cored", "stemmed", "deveined",
	"boneless", "skinless", "bone", "skin", "rinsed", "drained", "washed", "cleaned", "softened",
	"melted", "beaten", "whisked", "sifted", "packed", "firmly", "lightly", "loosely", "divided",
	"separated", "room-temperature", "toasted", "roasted", "grilled", "fried", "baked", "boiled",
	"steamed", "cooked", "uncooked", "blanched", "sauteed", "smoked", "cured", "pickled",
	"marinated", "prepared", "optional", "taste", "garnish", "serving", "needed", "plus", "more",
	"about", "approximately", "heaping", "level", "scant", "generous",
	// texture
	"crispy", "crisp", "crunchy", "soft", "hard", "firm", "tender", "smooth", "chunky", "creamy",
	"fine", "coarse", "juicy", "lean", "fatty",
	// dietary labels
	"organic", "natural", "unsalted", "salted", "sweetened", "unsweetened", "low", "fat", "free",
	"reduced", "sodium", "nonfat", "non", "lowfat", "gluten", "vegan", "vegetarian", "kosher",
	"halal", "light", "lite", "diet", "sugar-free", "fat-free", "gluten-free", "plain", "pure",
	"homemade", "store", "bought", "good", "quality", "best", "premium",
	// filler
	"of", "and", "or", "a", "an", "the", "for", "to", "with", "in", "at", "each", "your",
	"favorite", "any", "some", "few",
}

// 計量單位
var defaultUnits = []string{
	"cup", "cups", "c", "tablespoon", "tablespoons", "tbsp", "tbs", "tbl", "teaspoon", "teaspoons",
	"tsp", "ounce", "ounces", "oz", "fl", "fluid", "pound", "pounds", "lb", "lbs", "gram", "grams",
	"g", "kilogram", "kilograms", "kg", "milligram", "mg", "liter", "liters", "litre", "litres",
	"l", "milliliter", "milliliters", "ml", "pint", "pints", "pt", "quart", "quarts", "qt",
	"gallon", "gallons", "gal", "pinch", "pinches", "dash", "dashes", "drop", "drops", "handful",
	"handfuls", "sprig", "sprigs", "bunch", "bunches", "clove", "cloves", "stick", "sticks", "can",
	"cans", "jar", "jars", "package", "packages", "pkg", "packet", "packets", "bag", "bags", "box",
	"boxes", "bottle", "bottles", "slice", "slices", "stalk", "stalks", "head", "heads", "inch",
	"inches", "cm", "dozen", "container", "containers", "carton", "scoop", "scoops",
}

// 同時也是食材名稱的單位／描述詞，剔除後沒有其他詞時保留
var defaultNounUnits = []string{
	"clove", "cloves", "head", "heads", "stick", "sticks", "can", "cans", "half", "halves",
}

// 含有描述詞但本身就是食材的片語，整段保留
var defaultCompounds = []string{
	"half and half", "hot dog", "hot dogs", "hot sauce", "hot pepper", "hot peppers",
	"hot chocolate",
}

// VocabularyOption 詞彙表建立選項
type VocabularyOption func(*Vocabulary)

// WithNounUnits 設定可作為食材名稱的單位詞
func WithNounUnits(words ...string) VocabularyOption {
	return func(v *Vocabulary) {
		for _, w := range words {
			for _, tok := range tokenize(w) {
				v.nounUnits[tok] = struct{}{}
			}
		}
	}
}

// WithCompounds 設定整段保留的食材片語
func WithCompounds(phrases ...string) VocabularyOption {
	return func(v *Vocabulary) {
		for _, p := range phrases {
			if toks := tokenize(p); len(toks) > 0 {
				v.compounds = append(v.compounds, toks)
			}
		}
	}
}

// NewVocabulary 以給定詞彙建立詞彙表（詞彙為小寫）
func NewVocabulary(descriptors, units []string, opts ...VocabularyOption) *Vocabulary {
	v := &Vocabulary{
		descriptors: make(map[string]struct{}, len(descriptors)),
		units:       make(map[string]struct{}, len(units)),
		nounUnits:   make(map[string]struct{}),
	}
	for _, d := range descriptors {
		for _, tok := range tokenize(d) {
			v.descriptors[tok] = struct{}{}
		}
	}
	for _, u := range units {
		for _, tok := range tokenize(u) {
			v.units[tok] = struct{}{}
		}
	}
	for _, opt := range opts {
		opt(v)
	}
	// 長片語優先比對
	sort.SliceStable(v.compounds, func(i, j int) bool {
		return len(v.compounds[i]) > len(v.compounds[j])
	})
	return v
}

// DefaultVocabulary 建立內建詞彙表
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(defaultDescriptors, defaultUnits,
		WithNounUnits(defaultNounUnits...),
		WithCompounds(defaultCompounds...),
	)
}

// IsDescriptor 判斷是否為描述詞
func (v *Vocabulary) IsDescriptor(token string) bool {
	_, ok := v.descriptors[token]
	return ok
}

// IsUnit 判斷是否為計量單位
func (v *Vocabulary) IsUnit(token string) bool {
	_, ok := v.units[token]
	return ok
}

// IsNounUnit 判斷單位／描述詞是否也可能是食材名稱
func (v *Vocabulary) IsNounUnit(token string) bool {
	_, ok := v.nounUnits[token]
	return ok
}

// compoundAt 回傳 tokens[i:] 開頭符合的片語長度，沒有則為 0
func (v *Vocabulary) compoundAt(tokens []string, i int) int {
	for _, c := range v.compounds {
		if len(tokens)-i < len(c) {
			continue
		}
		match := true
		for k, tok := range c {
			if tokens[i+k] != tok {
				match = false
				break
			}
		}
		if match {
			return len(c)
		}
	}
	return 0
}
