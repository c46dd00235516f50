// Package collab bridges match events onto the message bus other backend
// services consume: the chat service, the shop, the rumor mill, and the
// reward settlement worker. The bridge only reads the event log; it never
// feeds anything back into a match.
package collab

// NATS subject constants
const (
	// SubjectShopRestock tells the shop to restock when a new day opens
	SubjectShopRestock = "mafia.shop.restock"

	// SubjectChatAnnounce carries public announcements into match chat
	SubjectChatAnnounce = "mafia.chat.announce"

	// SubjectChatMembership keeps the private mafia channel roster in sync
	SubjectChatMembership = "mafia.chat.membership"

	// SubjectRumorFodder feeds anonymized night activity to the rumor mill
	SubjectRumorFodder = "mafia.rumors.fodder"

	// SubjectRewardSettle triggers payout settlement when a match ends
	SubjectRewardSettle = "mafia.rewards.settle"
)
