package types

// ComponentID identifies a derived FAIR component
type ComponentID string

const (
	ComponentTEF           ComponentID = "tef"
	ComponentVulnerability ComponentID = "vulnerability"
	ComponentLEF           ComponentID = "lef"
	ComponentLM            ComponentID = "lm"
	ComponentRisk          ComponentID = "risk"
)

// AllComponents returns all derived components in composition order
func AllComponents() []ComponentID {
	return []ComponentID{
		ComponentTEF,
		ComponentVulnerability,
		ComponentLEF,
		ComponentLM,
		ComponentRisk,
	}
}

// IsValid checks if the component is valid
func (c ComponentID) IsValid() bool {
	switch c {
	case ComponentTEF,
		ComponentVulnerability,
		ComponentLEF,
		ComponentLM,
		ComponentRisk:
		return true
	default:
		return false
	}
}

// String returns the string representation of ComponentID
func (c ComponentID) String() string {
	return string(c)
}
