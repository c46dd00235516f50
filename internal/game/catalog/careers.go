package catalog

import "fmt"

// Career is a player's public daytime occupation. Careers are independent of
// roles: a Mafia member can be the town Teacher. Each career drives the task
// set offered to that player by the tasks service.
type Career int

const (
	CareerUnassigned Career = iota
	CareerTeacher
	CareerHunter
	CareerBanker
	CareerFarmer
	CareerMerchant
)

// String returns the string representation of a Career
func (c Career) String() string {
	switch c {
	case CareerUnassigned:
		return "Unassigned"
	case CareerTeacher:
		return "Teacher"
	case CareerHunter:
		return "Hunter"
	case CareerBanker:
		return "Banker"
	case CareerFarmer:
		return "Farmer"
	case CareerMerchant:
		return "Merchant"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// Task is a single daytime activity a career offers, with its coin reward.
type Task struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Reward int    `json:"reward"`
}

var careerTasks = map[Career][]Task{
	CareerTeacher: {
		{ID: "teach-class", Title: "Hold a morning class", Reward: 12},
		{ID: "grade-homework", Title: "Grade homework", Reward: 8},
	},
	CareerHunter: {
		{ID: "track-game", Title: "Track game in the woods", Reward: 14},
		{ID: "sell-pelts", Title: "Sell pelts at the market", Reward: 10},
	},
	CareerBanker: {
		{ID: "open-vault", Title: "Open the vault", Reward: 15},
		{ID: "balance-ledger", Title: "Balance the ledger", Reward: 9},
	},
	CareerFarmer: {
		{ID: "tend-fields", Title: "Tend the fields", Reward: 10},
		{ID: "deliver-produce", Title: "Deliver produce", Reward: 7},
	},
	CareerMerchant: {
		{ID: "open-stall", Title: "Open the market stall", Reward: 11},
		{ID: "haggle", Title: "Haggle with travelers", Reward: 9},
	},
}

// Tasks returns the task set for a career. Unassigned careers have none.
func (c Career) Tasks() []Task {
	return careerTasks[c]
}

// AllCareers returns every assignable career.
func AllCareers() []Career {
	return []Career{CareerTeacher, CareerHunter, CareerBanker, CareerFarmer, CareerMerchant}
}
