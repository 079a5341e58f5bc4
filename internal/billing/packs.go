package billing

// CreditPack defines a purchasable bundle of story credits.
type CreditPack struct {
	ID          string
	DisplayName string
	PriceCents  int64
	Credits     int64
}

// Packs holds all purchasable credit packs keyed by pack ID.
var Packs = map[string]*CreditPack{
	"spark": {
		ID:          "spark",
		DisplayName: "Spark",
		PriceCents:  499,
		Credits:     10,
	},
	"storyteller": {
		ID:          "storyteller",
		DisplayName: "Storyteller",
		PriceCents:  1499,
		Credits:     40,
	},
	"novelist": {
		ID:          "novelist",
		DisplayName: "Novelist",
		PriceCents:  3999,
		Credits:     150,
	},
}

// PackOrder defines the display ordering of packs.
var PackOrder = []string{"spark", "storyteller", "novelist"}

// GetPack returns a pack by its ID.
func GetPack(id string) *CreditPack {
	return Packs[id]
}
