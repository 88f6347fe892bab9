package fallback

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"waha-gateway/internal/models"

	"github.com/google/uuid"
)

const (
	// BaseEpoch anchors every synthetic timestamp so output never drifts
	// with the wall clock.
	BaseEpoch int64 = 1704240000

	// SelfID is the account the synthetic chat logs are written from.
	SelfID = "6282243673017@c.us"

	// LogSize is the number of messages in every synthetic chat log.
	LogSize = 20

	messageSpacing = 2 * 60 * 60
)

var sampleBodies = []string{
	"Halo, bagaimana kabarnya?",
	"Baik-baik saja, terima kasih!",
	"Apakah project sudah selesai?",
	"Sudah, tinggal testing final",
	"Oke, saya cek dulu ya",
	"Siap, saya tunggu update nya",
	"Documents sudah saya kirim",
	"Terima kasih atas bantuannya",
	"Sampai jumpa besok!",
	"Have a great day!",
}

// ackNamespace scopes the ids of mocked send acknowledgements.
var ackNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("waha-gateway/fallback/send"))

// Generator produces synthetic gateway data. Output depends only on the
// arguments, never on the network or on previous calls.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Chats returns the fixed synthetic chat list.
func (g *Generator) Chats() []models.Chat {
	return []models.Chat{
		models.NewDirectChat("628123456789@c.us", "John Doe", "Sample message 1", BaseEpoch, 2, true),
		models.NewGroupChat("120363419906557011@g.us", "Sample Group", "Sample group message", BaseEpoch-3600, 5, 25),
	}
}

// Contacts returns the fixed synthetic address book.
func (g *Generator) Contacts() []models.Contact {
	return []models.Contact{
		{ID: "628123456789@c.us", Name: "John Doe", Phone: "+62 812-3456-7890", IsMyContact: true, IsWAContact: true},
		{ID: "628987654321@c.us", Name: "Jane Smith", Phone: "+62 898-765-4321", IsMyContact: true, IsWAContact: true},
	}
}

// Messages returns the synthetic log of chatID, newest first. The same
// chatID always yields the same log.
func (g *Generator) Messages(chatID string) []models.Message {
	h := fnv.New64a()
	h.Write([]byte(chatID))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	out := make([]models.Message, 0, LogSize)
	for i := range LogSize {
		ts := BaseEpoch - int64(i)*messageSpacing - int64(rng.IntN(600))
		fromMe := rng.IntN(2) == 0

		from, to := chatID, SelfID
		if fromMe {
			from, to = SelfID, chatID
		}

		out = append(out, models.Message{
			ID:        fmt.Sprintf("mock_msg_%d_%d", i, ts),
			From:      from,
			To:        to,
			Body:      sampleBodies[rng.IntN(len(sampleBodies))],
			Timestamp: ts,
			FromMe:    fromMe,
		})
	}
	return out
}

// SendAck stands in for a gateway acknowledgement while degraded. The
// message id is derived from the request so retries map to the same id.
func (g *Generator) SendAck(session, chatID, body string) models.SendResult {
	id := uuid.NewSHA1(ackNamespace, []byte(session+"\x00"+chatID+"\x00"+body))
	return models.SendResult{
		MessageID: "mock_" + id.String(),
		ChatID:    chatID,
		Session:   session,
		Status:    "sent",
		Timestamp: BaseEpoch,
	}
}

// Health describes an unreachable gateway at url.
func (g *Generator) Health(url string) models.GatewayHealth {
	return models.GatewayHealth{Status: "disconnected", URL: url}
}
