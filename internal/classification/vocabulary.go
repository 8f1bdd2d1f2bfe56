package classification

import (
	"regexp"
	"strings"
)

// PromoTerms is the promotional and contact-solicitation vocabulary.
// Bare "dm" and "pm" are left out because "7:00 pm" is not a solicitation.
var PromoTerms = []string{
	"deal", "discount", "whatsapp", "contact me", "official", "promo code", "coupon",
	"click link", "click the link", "buy now", "limited time", "referral", "wholesale",
	"reseller", "unlock", "free gift", "dm me", "pm me", "cashback", "use code",
	"text me", "message me", "call me", "reach out", "get in touch", "inbox me",
	"slide into dm", "hit me up", "drop a line", "shoot me a text", "ping me", "buzz me",
	"ring me", "drop me a line", "give me a shout", "drop me a message", "send me a message",
	"contact me directly", "reach me at", "get me on", "find me on", "look me up",
	"search for me", "my number is", "my contact is", "my details are", "my info is",
	"my contact info", "my contact details", "my phone number",
	"my whatsapp", "my telegram", "my signal", "my line", "my wechat", "my kik",
	"my snapchat", "my instagram", "my facebook", "my twitter", "my linkedin",
	"my email", "my gmail", "my yahoo", "my outlook", "my hotmail", "my protonmail",
	"my tutanota", "my zoho", "my aol", "my icloud", "my yandex", "my mail", "my inbox",
	"my dm", "my pm", "my message", "my text", "my call", "my voice", "my video",
	"my facetime", "my skype", "my zoom", "my teams", "my slack", "my discord",
}

// TemplateTerms are generic-praise phrases typical of bulk-generated reviews.
var TemplateTerms = []string{
	"highly recommend to everyone", "must buy this product", "100% recommend",
	"definitely recommend this", "strongly recommend this", "absolutely recommend",
	"would definitely recommend", "will definitely buy again", "worth every single penny",
	"five star rating", "top notch quality", "best product ever",
	"excellent quality and service", "amazing quality and fast delivery",
	"perfect in every way", "couldn't be happier", "exceeded my expectations completely",
	"outstanding product and service", "phenomenal experience overall",
	"spectacular quality and value",
}

// DeliveryTerms are on-topic for food businesses and off-topic elsewhere.
var DeliveryTerms = []string{
	"shipping", "delivery", "logistics", "courier", "warehouse", "parcel", "invoice",
	"refund", "return", "chargeback", "tracking number", "lost package", "resend",
}

// OffTopicTerms are off-topic for every business.
var OffTopicTerms = []string{
	"political", "election", "vote", "government", "tax", "insurance", "investment",
	"stock", "crypto", "bitcoin", "ethereum", "forex", "trading", "gambling", "casino",
	"lottery", "betting", "dating", "marriage", "divorce", "legal", "law", "court",
	"attorney", "lawyer", "medical", "health", "pharmacy", "prescription", "medication",
	"surgery", "hospital", "clinic", "doctor", "nurse", "dentist", "orthodontist",
	"veterinarian", "pet", "animal", "car", "automotive", "vehicle", "motorcycle", "bike",
	"bicycle", "real estate", "property", "house", "apartment", "condo", "mortgage",
	"loan", "credit", "debt", "banking", "finance", "accounting", "audit", "consulting",
	"marketing", "advertising", "seo", "web design", "graphic design", "software",
	"programming", "coding", "development", "maintenance", "repair", "installation",
	"construction", "renovation", "plumbing", "electrical", "hvac", "landscaping",
	"gardening", "cleaning", "janitorial", "security", "pest control", "exterminator",
}

// BrandTerms is the brand and commerce vocabulary counted by brand_mentioning.
var BrandTerms = []string{
	"brand", "product", "item", "goods", "merchandise", "stock", "inventory", "supply",
	"supplier", "manufacturer", "distributor", "retailer", "wholesaler", "reseller",
	"dealer", "vendor", "seller", "buyer", "customer", "client", "consumer", "user",
	"end user", "target audience", "market", "marketplace", "platform", "website", "app",
	"application", "software", "tool", "service", "solution", "package", "bundle",
	"offer", "deal", "promotion", "campaign", "marketing", "advertising", "publicity",
	"exposure", "visibility", "reach", "engagement", "conversion", "sales", "revenue",
	"profit", "margin", "commission", "fee", "charge", "cost", "price", "value", "worth",
	"quality", "standard", "specification", "requirement", "feature", "function",
	"benefit", "advantage", "pro", "con", "pros", "cons", "positive", "negative", "good",
	"bad", "better", "worse", "best", "worst", "improve", "enhance", "upgrade", "optimize",
	"maximize", "minimize", "increase", "decrease", "reduce", "boost",
}

// TimeSensitiveTerms are seasonal and urgency phrases.
var TimeSensitiveTerms = []string{
	"limited time", "flash sale", "24 hours", "48 hours", "72 hours", "weekend",
	"today only", "tonight only", "this week", "this month", "this year", "seasonal",
	"holiday", "christmas", "black friday", "cyber monday", "boxing day", "new year",
	"valentine", "easter", "halloween", "thanksgiving", "independence day",
	"memorial day", "labor day", "veterans day", "presidents day", "columbus day",
	"martin luther king day", "juneteenth", "kwanzaa", "ramadan", "eid", "diwali",
	"hanukkah", "passover", "rosh hashanah", "yom kippur", "chinese new year",
	"lunar new year",
}

// FoodItemTerms are dishes and ingredients counted as entities.
var FoodItemTerms = []string{
	"noodles", "burger", "sushi", "espresso", "latte", "pasta", "ramen", "taco", "steak",
	"salad", "pizza", "sandwich", "hot dog", "chicken", "beef", "pork", "lamb", "fish",
	"shrimp", "salmon", "tuna", "cod", "halibut", "mahi mahi", "swordfish", "mackerel",
	"sardines", "anchovies", "herring", "trout", "bass", "perch", "walleye", "catfish",
	"tilapia", "snapper", "grouper", "redfish", "blackfish", "bluefish",
}

var currencyUnits = []string{
	"dollars?", "bucks?", "quid", "pounds?", "euros?", "yen", "yuan", "won", "rupees?",
	"pesos?", "francs?", "marks?", "liras?", "rubles?", "kronor?", "kroner?", "zloty",
	"forints?", "korunas?", "leis?", "levs?", "dinars?", "dirhams?", "rials?", "taka",
	"ringgit", "baht", "dong", "rupiah", "tugrik", "som", "tenge", "manat", "somoni",
	"afghani", "ariary", "dalasi", "cedi", "gourde", "kina", "kwacha", "maloti",
	"metical", "naira", "pula", "shilling", "tala", "vatu",
}

var quantityUnits = []string{
	"mins?", "hours?", "days?", "weeks?", "months?", "years?", "km", "miles?", "meters?",
	"feet", "inches", "cm", "mm", "kg", "pounds?", "ounces?", "grams?", "liters?",
	"gallons?", "cups?", "tablespoons?", "teaspoons?", "pieces?", "items?", "units?",
	"sets?", "pairs?", "dozens?", "hundreds?", "thousands?", "millions?", "billions?",
}

// DefaultEntityPatterns returns the money, time, quantity, and food patterns.
func DefaultEntityPatterns() []Pattern {
	foodTerms := make([]string, len(FoodItemTerms))
	for i, t := range FoodItemTerms {
		foodTerms[i] = strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`)
	}

	return []Pattern{
		{
			Name:  "currency",
			Kind:  EntityMoney,
			Regex: `\$ ?\d+(?:\.\d+)?|\b\d+ ?(?:` + strings.Join(currencyUnits, "|") + `)\b`,
		},
		{
			// "Month D, YYYY" stays case-sensitive so "may 5, 2020" in
			// running text is not mistaken for a date.
			Name: "clock-and-date",
			Kind: EntityTime,
			Regex: `\b(?:\d{1,2}:\d{2}(?: ?(?i:am|pm))?` +
				`|[A-Z][a-z]{2,8} \d{1,2}, \d{4}` +
				`|(?i:this (?:morning|afternoon|evening|week|month|year)` +
				`|(?:next|last) (?:week|month|year)` +
				`|yesterday|today|tomorrow|tonight|morning|afternoon|evening|night` +
				`|monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`,
			CaseSensitive: true,
		},
		{
			Name:  "quantity",
			Kind:  EntityQuantity,
			Regex: `\b\d+ (?:` + strings.Join(quantityUnits, "|") + `)\b`,
		},
		{
			Name:  "party-size",
			Kind:  EntityQuantity,
			Regex: `\b(?:table|party|group) of \d+\b`,
		},
		{
			Name:  "food-item",
			Kind:  EntityFood,
			Regex: `\b(?:` + strings.Join(foodTerms, "|") + `)\b`,
		},
	}
}

// Built-in vocabularies and detectors.
var (
	Promo         = mustVocabulary("promo", PromoTerms)
	Template      = mustVocabulary("template", TemplateTerms)
	Brand         = mustVocabulary("brand", BrandTerms)
	TimeSensitive = mustVocabulary("time_sensitive", TimeSensitiveTerms)
	Entities      = mustPatternDetector(DefaultEntityPatterns())
)

func mustPatternDetector(patterns []Pattern) *PatternDetector {
	pd, err := NewPatternDetector(patterns)
	if err != nil {
		panic(err)
	}
	return pd
}
