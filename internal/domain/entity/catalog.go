package entity

// Static catalog data exposed for discovery by external callers (map
// frontend, MCP agents, scenario authors). These are the authoritative
// enumerated domains; the nine-line validator reads its required-field and
// code sets from here so the two can never drift apart.

// CategoryInfo describes one entity category, with optional subtypes.
type CategoryInfo struct {
	Value    Category      `json:"value"`
	Label    string        `json:"label"`
	Subtypes []SubtypeInfo `json:"subtypes,omitempty"`
	Aliases  []string      `json:"aliases,omitempty"`
	Note     string        `json:"note,omitempty"`
}

type SubtypeInfo struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CodeInfo describes one value of a flat enumerated domain.
type CodeInfo struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// NineLineField describes one field of the 9-Line MEDEVAC request schema.
type NineLineField struct {
	Key         string            `json:"key"`
	Line        int               `json:"line,omitempty"`
	Title       string            `json:"title"`
	Type        string            `json:"type"` // "string" or "number"
	Description string            `json:"description"`
	Required    bool              `json:"required"`
	Codes       map[string]string `json:"enum_values,omitempty"`
}

// Catalog is the full schema document served by GET /api/schema.
type Catalog struct {
	Version        string          `json:"version"`
	Categories     []CategoryInfo  `json:"categories"`
	Alliances      []CodeInfo      `json:"alliances"`
	TriageClasses  []CodeInfo      `json:"triage_classes"`
	CasualtyStatus []CodeInfo      `json:"casualty_status"`
	EvacPriorities []CodeInfo      `json:"evac_priority"`
	EvacStages     []CodeInfo      `json:"evac_stage"`
	NineLine       []NineLineField `json:"nine_line_medevac"`
}

var categories = []CategoryInfo{
	{Value: CategoryMissile, Label: "Missile"},
	{Value: CategoryFighter, Label: "Fighter"},
	{Value: CategoryBomber, Label: "Bomber"},
	{Value: CategoryAircraft, Label: "Aircraft"},
	{Value: CategoryHelicopter, Label: "Helicopter"},
	{Value: CategoryUAV, Label: "UAV"},
	{Value: CategoryArmoured, Label: "Armoured / Tank", Aliases: []string{"tank", "apc"}},
	{Value: CategoryArtillery, Label: "Artillery"},
	{Value: CategoryShip, Label: "Ship"},
	{Value: CategoryDestroyer, Label: "Destroyer"},
	{Value: CategorySubmarine, Label: "Submarine"},
	{Value: CategoryGroundVehicle, Label: "Ground Vehicle"},
	{Value: CategoryInfantry, Label: "Infantry", Subtypes: []SubtypeInfo{
		{Value: "standard", Label: "Infantry (Standard)"},
		{Value: "light", Label: "Light Infantry"},
		{Value: "motorised", Label: "Motorised Infantry"},
		{Value: "mechanised", Label: "Mechanised Infantry"},
		{Value: "mechanised_wheeled", Label: "Mechanised Infantry Wheeled (APC)"},
		{Value: "armoured", Label: "Armoured Infantry"},
		{Value: "lav", Label: "Light Armoured Vehicle Infantry"},
		{Value: "unarmed_transport", Label: "Unarmed Transport"},
		{Value: "uav", Label: "UAV Infantry"},
	}},
	{Value: CategoryReconnaissance, Label: "Reconnaissance", Aliases: []string{"cavalry"}, Subtypes: []SubtypeInfo{
		{Value: "standard", Label: "Reconnaissance (Standard)"},
		{Value: "mechanised", Label: "Mechanised Reconnaissance"},
		{Value: "wheeled", Label: "Wheeled Reconnaissance"},
	}},
	{Value: CategoryEngineer, Label: "Engineer", Subtypes: []SubtypeInfo{
		{Value: "standard", Label: "Engineer"},
		{Value: "armoured", Label: "Engineer Armoured"},
	}},
	{Value: CategoryMortar, Label: "Mortar", Subtypes: []SubtypeInfo{
		{Value: "heavy", Label: "Heavy Mortar"},
		{Value: "medium", Label: "Medium Mortar"},
		{Value: "light", Label: "Light Mortar"},
		{Value: "unknown", Label: "Mortar (Unknown Type)"},
	}},
	{Value: CategoryPerson, Label: "Person"},
	{Value: CategoryBase, Label: "Base"},
	{Value: CategoryBuilding, Label: "Building"},
	{Value: CategoryInfrastructure, Label: "Infrastructure"},
	{Value: CategoryMedicalFacility, Label: "Medical Facility", Subtypes: []SubtypeInfo{
		{Value: "medical_role_1", Label: "Role 1 - Aid Post"},
		{Value: "medical_role_2", Label: "Role 2 - Surgical"},
		{Value: "medical_role_2basic", Label: "Role 2 Basic"},
		{Value: "medical_role_2enhanced", Label: "Role 2 Enhanced"},
		{Value: "medical_role_3", Label: "Role 3 - Field Hospital"},
		{Value: "medical_role_4", Label: "Role 4 - Definitive Care"},
		{Value: "medical_facility_multinational", Label: "Multinational Facility"},
	}},
	{Value: CategoryMedevacUnit, Label: "MEDEVAC Unit", Subtypes: []SubtypeInfo{
		{Value: "medevac_helo", Label: "Rotary-Wing MEDEVAC"},
		{Value: "medevac_fixedwing", Label: "Fixed-Wing MEDEVAC"},
		{Value: "medevac_ambulance", Label: "Ambulance"},
		{Value: "medevac_mechanised", Label: "Mechanised MEDEVAC"},
		{Value: "medevac_mortuary", Label: "Mortuary Affairs"},
	}},
	{Value: CategoryCasualty, Label: "Casualty",
		Note: "Use the alliance field for friendly/hostile/neutral; casualty status (WIA/KIA) is catalog data, not a column."},
	{Value: CategoryDefault, Label: "Default"},
}

var categorySet = func() map[Category]struct{} {
	set := make(map[Category]struct{}, len(categories))
	for _, c := range categories {
		set[c.Value] = struct{}{}
	}
	return set
}()

var alliances = []CodeInfo{
	{Value: "friendly", Label: "Friendly"},
	{Value: "hostile", Label: "Hostile"},
	{Value: "neutral", Label: "Neutral"},
	{Value: "unknown", Label: "Unknown"},
}

// STANAG 2879 / AJMedP-7 triage classes.
var triageClasses = []CodeInfo{
	{Value: "immediate", Label: "T1 - Immediate",
		Description: "Life-threatening injuries requiring immediate life-saving intervention."},
	{Value: "urgent", Label: "T2 - Urgent",
		Description: "Needs stabilizing treatment, but condition permits delay without unduly endangering life."},
	{Value: "minimal", Label: "T3 - Minimal",
		Description: "Relatively minor injuries; self-care or first-aid trained personnel suffice."},
	{Value: "expectant", Label: "T4 - Expectant",
		Description: "Expected to die given the circumstances; supportive and palliative care."},
	{Value: "dead", Label: "Dead",
		Description: "Declared dead, or non-survivable injuries with no vital signs."},
	{Value: "unknown", Label: "Unknown", Description: "Not yet triaged."},
}

var casualtyStatus = []CodeInfo{
	{Value: "WIA", Label: "Wounded In Action"},
	{Value: "KIA", Label: "Killed In Action"},
	{Value: "UNKNOWN", Label: "Unknown"},
}

var evacPriorities = []CodeInfo{
	{Value: "urgent", Label: "Urgent", Description: "Life-threatening, needs care within 1h"},
	{Value: "priority", Label: "Priority", Description: "Serious but stable, within 4h"},
	{Value: "routine", Label: "Routine", Description: "Stable, within 24h"},
	{Value: "unknown", Label: "Unknown"},
}

var evacStages = []CodeInfo{
	{Value: "at_poi", Label: "At Point of Injury"},
	{Value: "in_transit", Label: "In Transit"},
	{Value: "delivered", Label: "Delivered"},
	{Value: "unknown", Label: "Unknown"},
}

// NATO STANAG 9-Line MEDEVAC request format.
var nineLineFields = []NineLineField{
	{Key: "line1_location", Line: 1, Title: "Location", Type: "string", Required: true,
		Description: `Grid coordinates of the pickup site (e.g. "38TQK 1234 5678" or "47.091,37.568").`},
	{Key: "line2_callsign", Line: 2, Title: "Call Sign", Type: "string", Required: true,
		Description: `Radio call sign of the unit at the pickup site (e.g. "DUSTOFF 7-2").`},
	{Key: "line2_frequency", Line: 2, Title: "Frequency", Type: "string", Required: true,
		Description: `Radio frequency for contact (e.g. "243.0 MHz").`},
	{Key: "line3_precedence", Line: 3, Title: "Precedence", Type: "string", Required: true,
		Description: "Number of patients sorted by precedence.",
		Codes: map[string]string{
			"A": "URGENT - within 2 hours",
			"B": "URGENT SURGICAL - within 2 hours",
			"C": "PRIORITY - within 4 hours",
			"D": "ROUTINE - within 24 hours",
		}},
	{Key: "line3_count", Line: 3, Title: "Patient Count", Type: "number", Required: true,
		Description: "Number of patients at the stated precedence level."},
	{Key: "line4_special_eqpt", Line: 4, Title: "Special Equipment", Type: "string", Required: true,
		Description: "Special equipment required at the pickup site.",
		Codes: map[string]string{
			"A": "None",
			"B": "Hoist",
			"C": "Extraction equipment",
			"D": "Ventilator",
		}},
	{Key: "line5_litter", Line: 5, Title: "Litter Patients", Type: "number", Required: true,
		Description: "Number of patients requiring litter (stretcher) transport."},
	{Key: "line5_ambulatory", Line: 5, Title: "Ambulatory Patients", Type: "number", Required: true,
		Description: "Number of patients who can walk."},
	{Key: "line6_security", Line: 6, Title: "Security of Pickup Site (Wartime)", Type: "string",
		Description: "Threat level at the pickup zone.",
		Codes: map[string]string{
			"N": "No enemy troops in area",
			"P": "Possible enemy troops in area",
			"E": "Enemy troops in area - proceed with caution",
			"X": "Enemy troops in area - armed escort required",
		}},
	{Key: "line6_peacetime_info", Line: 6, Title: "Peacetime Info", Type: "string",
		Description: "Peacetime alternative: number and type of wounded (free text)."},
	{Key: "line7_marking", Line: 7, Title: "Method of Marking Pickup Site", Type: "string", Required: true,
		Description: "How the pilot will identify the pickup site.",
		Codes: map[string]string{
			"A": "Panels (specify colour in line7_marking_detail)",
			"B": "Pyrotechnic signal",
			"C": "Smoke signal",
			"D": "None",
			"E": "Other (describe in line7_marking_detail)",
		}},
	{Key: "line7_marking_detail", Line: 7, Title: "Marking Detail", Type: "string",
		Description: `Colour or description of the marking method (e.g. "green smoke").`},
	{Key: "line8_nationality", Line: 8, Title: "Patient Nationality and Status", Type: "string", Required: true,
		Description: "Nationality and military/civilian status of the patient(s).",
		Codes: map[string]string{
			"A": "US Military",
			"B": "US Civilian",
			"C": "Non-US Military",
			"D": "Non-US Civilian",
			"E": "Enemy Prisoner of War (EPW)",
		}},
	{Key: "line9_nbc", Line: 9, Title: "NBC Contamination (Wartime)", Type: "string",
		Description: "Nuclear, Biological, or Chemical contamination at the site.",
		Codes: map[string]string{
			"N": "Nuclear",
			"B": "Biological",
			"C": "Chemical",
		}},
	{Key: "line9_terrain_desc", Line: 9, Title: "Terrain Description (Peacetime)", Type: "string",
		Description: "Peacetime alternative: terrain and landing zone description (free text)."},
	{Key: "remarks", Title: "Remarks", Type: "string",
		Description: "Additional free-text remarks about the MEDEVAC request."},
}

// Schema returns the full static catalog.
func Schema() *Catalog {
	return &Catalog{
		Version:        "1.1.0",
		Categories:     categories,
		Alliances:      alliances,
		TriageClasses:  triageClasses,
		CasualtyStatus: casualtyStatus,
		EvacPriorities: evacPriorities,
		EvacStages:     evacStages,
		NineLine:       nineLineFields,
	}
}
