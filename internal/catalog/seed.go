package catalog

// seedItems is the built-in product list used when no catalog file is configured.
var seedItems = []Item{
	// seven
	{Store: "seven", Category: "foods", Name: "Onigiri (red salmon)", Calories: 180, Price: 140, Slot: SlotBreakfast},
	{Store: "seven", Category: "foods", Name: "Onigiri (tuna mayo)", Calories: 230, Price: 150, Slot: SlotBreakfast},
	{Store: "seven", Category: "foods", Name: "Onigiri (kombu)", Calories: 180, Price: 120, Slot: SlotBreakfast},
	{Store: "seven", Category: "foods", Name: "Salad chicken (plain)", Calories: 114, Price: 248, Slot: SlotAny},
	{Store: "seven", Category: "foods", Name: "Salad chicken (herb)", Calories: 125, Price: 258, Slot: SlotAny},
	{Store: "seven", Category: "foods", Name: "Chicken salad with vegetables", Calories: 210, Price: 420, Slot: SlotLunch},
	{Store: "seven", Category: "foods", Name: "Low-carb bread", Calories: 150, Price: 160, Slot: SlotBreakfast},
	{Store: "seven", Category: "foods", Name: "Sandwich (ham & egg)", Calories: 320, Price: 330, Slot: SlotBreakfast},
	{Store: "seven", Category: "foods", Name: "Grilled mackerel", Calories: 280, Price: 360, Slot: SlotDinner},
	{Store: "seven", Category: "foods", Name: "Grilled chicken", Calories: 220, Price: 320, Slot: SlotDinner},
	{Store: "seven", Category: "foods", Name: "Miso soup", Calories: 35, Price: 120, Slot: SlotAny, Filler: true},
	{Store: "seven", Category: "foods", Name: "Wakame soup", Calories: 20, Price: 110, Slot: SlotAny, Filler: true},
	{Store: "seven", Category: "foods", Name: "Boiled egg", Calories: 68, Price: 84, Slot: SlotAny, Filler: true},
	{Store: "seven", Category: "foods", Name: "Edamame (small)", Calories: 120, Price: 200, Slot: SlotAny, Filler: true},
	{Store: "seven", Category: "foods", Name: "Mini salad", Calories: 60, Price: 150, Slot: SlotAny, Filler: true},
	{Store: "seven", Category: "foods", Name: "Cut fruit", Calories: 90, Price: 300, Slot: SlotAny, Filler: true},

	// familymart
	{Store: "familymart", Category: "foods", Name: "Salmon onigiri", Calories: 185, Price: 150, Slot: SlotBreakfast},
	{Store: "familymart", Category: "foods", Name: "Mentaiko onigiri", Calories: 180, Price: 140, Slot: SlotBreakfast},
	{Store: "familymart", Category: "foods", Name: "Grilled chicken (herb)", Calories: 165, Price: 220, Slot: SlotAny},
	{Store: "familymart", Category: "foods", Name: "RIZAP chicken salad", Calories: 210, Price: 398, Slot: SlotLunch},
	{Store: "familymart", Category: "foods", Name: "Spaghetti napolitan (small)", Calories: 420, Price: 430, Slot: SlotLunch},
	{Store: "familymart", Category: "foods", Name: "Salted mackerel", Calories: 280, Price: 350, Slot: SlotDinner},
	{Store: "familymart", Category: "foods", Name: "Miso soup", Calories: 40, Price: 120, Slot: SlotAny, Filler: true},
	{Store: "familymart", Category: "foods", Name: "Pork miso soup", Calories: 150, Price: 260, Slot: SlotAny, Filler: true},
	{Store: "familymart", Category: "foods", Name: "Boiled egg", Calories: 70, Price: 90, Slot: SlotAny, Filler: true},
	{Store: "familymart", Category: "foods", Name: "Edamame", Calories: 120, Price: 200, Slot: SlotAny},
	{Store: "familymart", Category: "foods", Name: "Mini salad", Calories: 60, Price: 150, Slot: SlotAny, Filler: true},

	// hottomotto
	{Store: "hottomotto", Category: "bento", Name: "Nori bento", Calories: 700, Price: 420, Slot: SlotLunch},
	{Store: "hottomotto", Category: "bento", Name: "Karaage bento (small rice)", Calories: 650, Price: 480, Slot: SlotLunch},
	{Store: "hottomotto", Category: "bento", Name: "Silver salmon bento (small rice)", Calories: 540, Price: 560, Slot: SlotLunch},
	{Store: "hottomotto", Category: "bento", Name: "Miso soup", Calories: 40, Price: 110, Slot: SlotAny, Filler: true},
	{Store: "hottomotto", Category: "bento", Name: "Side salad", Calories: 90, Price: 150, Slot: SlotAny, Filler: true},
	{Store: "hottomotto", Category: "bento", Name: "White fish fry", Calories: 250, Price: 180, Slot: SlotAny},
	{Store: "hottomotto", Category: "bento", Name: "Karaage (2 pieces)", Calories: 220, Price: 170, Slot: SlotAny},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(seedItems)
	if err != nil {
		panic("catalog: built-in items are invalid: " + err.Error())
	}
	return c
}
