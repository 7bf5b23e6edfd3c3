package entity

import "github.com/alexanderramin/itopnl/internal/domain"

var ticketNouns = []string{"ticket", "request", "user request", "incident", "change", "problem", "issue", "case"}

var ticketSLA = &SLAFields{
	ResolvePassed:    "sla_ttr_passed",
	ResponsePassed:   "sla_tto_passed",
	ResolveDeadline:  "ttr_deadline",
	ResponseDeadline: "tto_deadline",
}

var slaBreachRule = ExtraRule{
	Name:     "sla_breach",
	Field:    "sla_ttr_passed",
	Operator: domain.OpEqual,
	Single:   true,
	Terms: []Term{
		{"sla breach", "yes"}, {"sla breached", "yes"}, {"breached sla", "yes"},
		{"sla missed", "yes"}, {"missed sla", "yes"},
		{"sla met", "no"}, {"met sla", "no"},
	},
	Label: "SLA resolution deadline passed",
}

var osFamilyRule = ExtraRule{
	Name:     "os_family",
	Field:    "osfamily_name",
	Operator: domain.OpLike,
	Single:   true,
	Terms:    []Term{{"windows", "%Windows%"}, {"linux", "%Linux%"}, {"macos", "%Mac%"}, {"mac", "%Mac%"}},
	Label:    "OS family",
}

// business_criticity only holds high, medium and low.
var criticalityRule = ExtraRule{
	Name:     "criticality",
	Field:    "business_criticity",
	Operator: domain.OpEqual,
	Terms: []Term{
		{"critical", "high"}, {"business critical", "high"}, {"high criticality", "high"},
		{"medium criticality", "medium"}, {"low criticality", "low"},
	},
	Label: "business criticality",
}

var ciStatus = map[string][]string{
	"stock":          {"stock"},
	"implementation": {"implementation"},
	"production":     {"production"},
	"obsolete":       {"obsolete"},
	"active":         {"stock", "implementation", "production"},
	"inactive":       {"obsolete"},
}

var activeInactive = map[string][]string{
	"active":   {"active"},
	"inactive": {"inactive"},
}

var ticketNamed = []NamedFilter{
	{Keywords: []string{"organization", "organisation", "org"}, Field: "org_name", Label: "organization"},
	{Keywords: []string{"team"}, Field: "team_name", Label: "team"},
	{Keywords: []string{"caller", "requester"}, Field: "caller_name", Label: "caller"},
	{Keywords: []string{"agent", "assignee"}, Field: "agent_name", Label: "agent"},
}

var ownerNamed = NamedFilter{Keywords: []string{"owner", "team"}, Field: "owner_friendlyname", Label: "owner team"}
var orgNamed = NamedFilter{Keywords: []string{"organization", "organisation", "org"}, Field: "org_name", Label: "organization"}
var locationNamed = NamedFilter{Keywords: []string{"location", "site"}, Field: "location_name", Label: "location"}
var rackNamed = NamedFilter{Keywords: []string{"rack"}, Field: "rack_name", Label: "rack"}
var brandNamed = NamedFilter{Keywords: []string{"brand"}, Field: "brand_name", Label: "brand"}

var ciGroups = map[string]string{
	"os":          "osfamily_name",
	"criticality": "business_criticity",
	"brand":       "brand_name",
	"owner":       "owner_friendlyname",
	"team":        "owner_friendlyname",
	"model":       "model_name",
}

func withGroups(base map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func builtinProfiles() []*Profile {
	return []*Profile{
		{
			Class:  "UserRequest",
			Title:  "User Requests",
			Family: FamilyTickets,
			Emoji:  "🎫",
			Nouns:  ticketNouns,

			StatusField: "status",
			StatusValues: map[string][]string{
				"new":       {"new"},
				"open":      {"new", "assigned", "pending"},
				"closed":    {"closed"},
				"resolved":  {"resolved"},
				"pending":   {"pending"},
				"assigned":  {"assigned"},
				"escalated": {"escalated_tto", "escalated_ttr"},
				"waiting":   {"waiting_for_approval"},
				"approved":  {"approved"},
				"rejected":  {"rejected"},
			},
			PriorityField: "priority",
			CreatedField:  "start_date",
			UpdatedField:  "last_update",
			SLA:           ticketSLA,
			NamedFilters:  ticketNamed,
			TeamPhrases:   true,
			Extras:        []ExtraRule{slaBreachRule},
			DetailFields: []string{"id", "ref", "title", "status", "priority", "urgency", "caller_name",
				"agent_name", "org_name", "team_name", "start_date", "last_update"},
			ToolName:        "query_user_requests",
			ToolDescription: "Query iTop user requests (support tickets) in natural language, e.g. \"critical requests for the network team this week\".",
		},
		{
			Class:  "Ticket",
			Title:  "Tickets",
			Family: FamilyTickets,
			Emoji:  "🎫",
			Nouns:  ticketNouns,

			StatusField: "operational_status",
			StatusValues: map[string][]string{
				"open":     {"ongoing"},
				"closed":   {"closed"},
				"resolved": {"resolved"},
			},
			CreatedField: "start_date",
			UpdatedField: "last_update",
			NamedFilters: []NamedFilter{ticketNamed[0], ticketNamed[1], ticketNamed[3]},
			TeamPhrases:  true,
			GroupFields:  map[string]string{"status": "operational_status"},
			DetailFields: []string{"id", "ref", "title", "operational_status", "finalclass", "org_name",
				"team_name", "agent_name", "start_date", "last_update"},
			SplitByFinalClass: true,
			PriorityDelegate:  "UserRequest",
			DelegateNouns:     map[string]string{"tickets": "user requests", "ticket": "user request"},
			ClosedSides:       []domain.Predicate{{Field: "operational_status", Operator: domain.OpEqual, Value: "closed", DisplayName: "closed"}},
			OpenSides:         []domain.Predicate{{Field: "operational_status", Operator: domain.OpEqual, Value: "ongoing", DisplayName: "ongoing"}},
			ToolName:          "query_tickets",
			ToolDescription:   "Query every ticket type at once (user requests, incidents, problems, changes) through the generic Ticket class.",
		},
		{
			Class:  "Change",
			Title:  "Changes",
			Family: FamilyTickets,
			Emoji:  "🔄",
			Nouns:  ticketNouns,

			StatusField: "status",
			StatusValues: map[string][]string{
				"new":           {"new"},
				"approved":      {"approved"},
				"implemented":   {"implemented"},
				"closed":        {"closed"},
				"rejected":      {"rejected"},
				"completed":     {"implemented", "closed"},
				"open":          {"new", "approved"},
				"not_completed": {"new", "approved", "rejected"},
			},
			CreatedField: "start_date",
			UpdatedField: "last_update",
			NamedFilters: []NamedFilter{ticketNamed[0], ticketNamed[1], ticketNamed[3]},
			TeamPhrases:  true,
			Extras: []ExtraRule{{
				Name:     "change_type",
				Field:    "finalclass",
				Operator: domain.OpEqual,
				Single:   true,
				Terms: []Term{
					{"emergency", "EmergencyChange"},
					{"normal change", "NormalChange"},
					{"routine", "RoutineChange"},
				},
				Label: "change type",
			}},
			DetailFields: []string{"id", "ref", "title", "status", "finalclass", "org_name", "agent_name",
				"team_name", "start_date", "end_date", "outage", "last_update"},
			ToolName:        "query_changes",
			ToolDescription: "Query iTop change requests (routine, normal, emergency) in natural language.",
		},
		{
			Class:  "Incident",
			Title:  "Incidents",
			Family: FamilyTickets,
			Emoji:  "🚨",
			Nouns:  ticketNouns,

			StatusField: "status",
			StatusValues: map[string][]string{
				"new":       {"new"},
				"open":      {"new", "assigned", "pending"},
				"assigned":  {"assigned"},
				"pending":   {"pending"},
				"resolved":  {"resolved"},
				"closed":    {"closed"},
				"escalated": {"escalated_tto", "escalated_ttr"},
			},
			PriorityField: "priority",
			CreatedField:  "start_date",
			UpdatedField:  "last_update",
			SLA:           ticketSLA,
			NamedFilters:  ticketNamed,
			TeamPhrases:   true,
			Extras:        []ExtraRule{slaBreachRule},
			DetailFields: []string{"id", "ref", "title", "status", "priority", "urgency", "impact", "caller_name",
				"agent_name", "org_name", "team_name", "start_date", "last_update"},
			ToolName:        "query_incidents",
			ToolDescription: "Query iTop incidents in natural language, e.g. \"open incidents not updated in 48 hours\".",
		},
		{
			Class:  "Problem",
			Title:  "Problems",
			Family: FamilyTickets,
			Emoji:  "🔍",
			Nouns:  ticketNouns,

			StatusField: "status",
			StatusValues: map[string][]string{
				"new":      {"new"},
				"open":     {"new", "assigned"},
				"assigned": {"assigned"},
				"resolved": {"resolved"},
				"closed":   {"closed"},
			},
			PriorityField: "priority",
			CreatedField:  "start_date",
			UpdatedField:  "last_update",
			NamedFilters:  []NamedFilter{ticketNamed[0], ticketNamed[1], ticketNamed[3]},
			TeamPhrases:   true,
			DetailFields: []string{"id", "ref", "title", "status", "priority", "urgency", "impact",
				"agent_name", "org_name", "team_name", "start_date", "last_update"},
			ToolName:        "query_problems",
			ToolDescription: "Query iTop problems (root cause investigations) in natural language.",
		},
		{
			Class:          "PC",
			Title:          "PCs",
			Family:         FamilyAssets,
			Emoji:          "💻",
			Nouns:          []string{"pc", "computer", "desktop", "laptop", "workstation"},
			StatusField:    "status",
			StatusValues:   ciStatus,
			StatusAnywhere: true,
			CreatedField:   "move2production",
			NamedFilters: []NamedFilter{
				orgNamed, locationNamed,
				{Keywords: []string{"user"}, Field: "user_friendlyname", Label: "user"},
				ownerNamed, brandNamed,
			},
			Extras: []ExtraRule{
				{
					Name:     "pc_type",
					Field:    "type",
					Operator: domain.OpEqual,
					Single:   true,
					Terms:    []Term{{"desktop", "desktop"}, {"laptop", "laptop"}, {"notebook", "laptop"}},
					Label:    "PC type",
				},
				criticalityRule,
				osFamilyRule,
			},
			GroupFields:     withGroups(ciGroups, map[string]string{"type": "type", "user": "user_friendlyname"}),
			ToolName:        "query_pcs",
			ToolDescription: "Query PCs, laptops and workstations in the CMDB.",
		},
		{
			Class:           "Server",
			Title:           "Servers",
			Family:          FamilyAssets,
			Emoji:           "🖥️",
			Nouns:           []string{"server"},
			StatusField:     "status",
			StatusValues:    ciStatus,
			StatusAnywhere:  true,
			CreatedField:    "move2production",
			NamedFilters:    []NamedFilter{orgNamed, locationNamed, rackNamed, ownerNamed, brandNamed},
			Extras:          []ExtraRule{criticalityRule, osFamilyRule},
			GroupFields:     withGroups(ciGroups, map[string]string{"rack": "rack_name"}),
			ToolName:        "query_servers",
			ToolDescription: "Query physical servers in the CMDB (racks, locations, OS, criticality).",
		},
		{
			Class:          "VirtualMachine",
			Title:          "Virtual Machines",
			Family:         FamilyAssets,
			Emoji:          "☁️",
			Nouns:          []string{"vm", "virtual machine"},
			StatusField:    "status",
			StatusValues:   ciStatus,
			StatusAnywhere: true,
			CreatedField:   "move2production",
			NamedFilters: []NamedFilter{
				orgNamed, ownerNamed,
				{Keywords: []string{"host", "virtualhost", "hypervisor"}, Field: "virtualhost_name", Label: "virtual host"},
			},
			Extras:          []ExtraRule{criticalityRule, osFamilyRule},
			GroupFields:     withGroups(ciGroups, map[string]string{"host": "virtualhost_name"}),
			ToolName:        "query_virtual_machines",
			ToolDescription: "Query virtual machines and their hosts.",
		},
		{
			Class:          "NetworkDevice",
			Title:          "Network Devices",
			Family:         FamilyAssets,
			Emoji:          "🌐",
			Nouns:          []string{"network device", "router", "switch", "firewall", "device"},
			StatusField:    "status",
			StatusValues:   ciStatus,
			StatusAnywhere: true,
			CreatedField:   "move2production",
			NamedFilters:   []NamedFilter{orgNamed, locationNamed, rackNamed, ownerNamed, brandNamed},
			Extras: []ExtraRule{
				{
					Name:     "device_type",
					Field:    "networkdevicetype_name",
					Operator: domain.OpLike,
					Single:   true,
					Terms:    []Term{{"switch", "%Switch%"}, {"router", "%Router%"}, {"firewall", "%Firewall%"}},
					Label:    "device type",
				},
				criticalityRule,
			},
			GroupFields:     withGroups(ciGroups, map[string]string{"type": "networkdevicetype_name", "rack": "rack_name"}),
			ToolName:        "query_network_devices",
			ToolDescription: "Query routers, switches, firewalls and other network devices.",
		},
		{
			Class:          "Person",
			Title:          "People",
			Family:         FamilyPeople,
			Emoji:          "👤",
			Nouns:          []string{"person", "people", "contact", "user"},
			StatusField:    "status",
			StatusValues:   activeInactive,
			StatusAnywhere: true,
			NamedFilters: []NamedFilter{
				orgNamed, locationNamed,
				{Keywords: []string{"function", "role"}, Field: "function", Label: "function"},
			},
			Extras: []ExtraRule{{
				Name:     "manager_function",
				Field:    "function",
				Operator: domain.OpLike,
				Single:   true,
				Terms:    []Term{{"manager", "%manager%"}},
				Label:    "function",
			}},
			GroupFields:     map[string]string{"function": "function"},
			DetailFields:    []string{"id", "friendlyname", "email", "phone", "function", "org_name", "location_name", "status"},
			ToolName:        "query_people",
			ToolDescription: "Query people (contacts) by organization, function, location or status.",
		},
		{
			Class:           "Team",
			Title:           "Teams",
			Family:          FamilyPeople,
			Emoji:           "👥",
			Nouns:           []string{"team"},
			StatusField:     "status",
			StatusValues:    activeInactive,
			StatusAnywhere:  true,
			NamedFilters:    []NamedFilter{orgNamed},
			GroupFields:     map[string]string{"function": "function"},
			DetailFields:    []string{"id", "name", "email", "phone", "function", "org_name", "status"},
			ToolName:        "query_teams",
			ToolDescription: "Query support teams and their organizations.",
		},
		{
			Class:          "Organization",
			Title:          "Organizations",
			Family:         FamilyPeople,
			Emoji:          "🏢",
			Nouns:          []string{"organization", "organisation", "org", "company"},
			StatusField:    "status",
			StatusValues:   activeInactive,
			StatusAnywhere: true,
			NamedFilters: []NamedFilter{
				{Keywords: []string{"parent"}, Field: "parent_name", Label: "parent organization"},
				{Keywords: []string{"named", "name"}, Field: "name", Label: "name"},
			},
			GroupFields:     map[string]string{"parent": "parent_name", "delivery model": "deliverymodel_name"},
			DetailFields:    []string{"id", "name", "code", "status", "parent_name", "deliverymodel_name"},
			ToolName:        "query_organizations",
			ToolDescription: "Query organizations (customers, providers) and their hierarchy.",
		},
	}
}

// genericProfile covers classes without dedicated configuration. It has
// no status table, so status words become unverified guesses.
func genericProfile(class string) *Profile {
	return &Profile{
		Class:           class,
		Title:           class,
		Family:          FamilyGeneric,
		Emoji:           "📋",
		StatusField:     "status",
		StatusAnywhere:  true,
		CreatedField:    "start_date",
		UpdatedField:    "last_update",
		NamedFilters:    []NamedFilter{orgNamed},
		DetailLimit:     10,
		Generic:         true,
		HighlightFields: highlightFields(class),
	}
}

var classHighlights = map[string][]string{
	"Location":            {"name", "status", "org_name", "address", "city", "country"},
	"Rack":                {"name", "status", "location_name", "nb_u", "org_name"},
	"PhysicalIP":          {"ip", "status", "org_name", "subnet_name"},
	"Contact":             {"friendlyname", "email", "phone", "org_name", "status"},
	"FunctionalCI":        {"name", "finalclass", "status", "business_criticity", "org_name"},
	"ApplicationSolution": {"name", "status", "business_criticity", "org_name"},
	"BusinessProcess":     {"name", "status", "business_criticity", "org_name"},
	"Service":             {"name", "status", "org_name", "servicefamily_name"},
	"SLA":                 {"name", "org_name", "description"},
	"Hypervisor":          {"name", "status", "server_name", "farm_name", "org_name"},
	"Software":            {"name", "vendor", "version", "type"},
	"User":                {"login", "contactid_friendlyname", "status", "profile_list"},
}

func highlightFields(class string) []string {
	if f, ok := classHighlights[class]; ok {
		return f
	}
	return []string{"friendlyname", "name", "title", "status", "org_name", "finalclass"}
}
