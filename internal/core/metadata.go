package core

// MetadataTable is a table every WOUDC file carries regardless of dataset.
type MetadataTable struct {
	Name     string
	Required []string
	Optional []string
}

// DefaultMetadataTables are the core metadata tables and their fields.
var DefaultMetadataTables = []MetadataTable{
	{Name: "CONTENT", Required: []string{"Class", "Category", "Level", "Form"}},
	{Name: "DATA_GENERATION", Required: []string{"Date", "Agency", "Version"}, Optional: []string{"ScientificAuthority"}},
	{Name: "PLATFORM", Required: []string{"Type", "ID", "Name", "Country"}, Optional: []string{"GAW_ID"}},
	{Name: "INSTRUMENT", Required: []string{"Name", "Model", "Number"}},
	{Name: "LOCATION", Required: []string{"Latitude", "Longitude", "Height"}},
	{Name: "TIMESTAMP", Required: []string{"UTCOffset", "Date"}, Optional: []string{"Time"}},
}

func (m MetadataTable) declares(column string) bool {
	for _, c := range m.Required {
		if c == column {
			return true
		}
	}
	for _, c := range m.Optional {
		if c == column {
			return true
		}
	}
	return false
}
