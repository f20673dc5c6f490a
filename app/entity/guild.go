package entity

type Guild struct {
	ID   string
	Name string
}

type Role struct {
	ID   string
	Name string
}

type Member struct {
	ID       string
	Username string
	RoleIDs  []string
}

func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// SaleAudit is the structured record emitted to the log channel after a
// completed delivery.
type SaleAudit struct {
	GuildName         string
	RoleName          string
	MemberID          string
	Username          string
	PaymentID         string
	TransactionAmount float64
}
