package automation

import (
	"fmt"

	"github.com/spf13/viper"
)

const DefaultReply = "Maaf, saya tidak mengerti pesan Anda. Silakan ulangi dengan kata yang berbeda."

// DefaultRules is the built-in table used when no rules file is configured.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "greeting",
			Priority: 10,
			Keywords: []string{"halo", "hi", "assalamualaikum", "hello"},
			Reply:    "Halo! Terima kasih telah menghubungi kami. Ada yang bisa kami bantu?",
		},
		{
			ID:       "thanks",
			Priority: 20,
			Keywords: []string{"terima kasih", "thank you", "makasih"},
			Reply:    "Sama-sama! Senang bisa membantu Anda.",
		},
		{
			ID:       "help",
			Priority: 30,
			Keywords: []string{"help", "bantuan", "tolong"},
			Reply:    "Bantuan tersedia! Silakan jelaskan masalah Anda dan kami akan segera membantu.",
		},
		{
			ID:       "business",
			Priority: 40,
			Keywords: []string{"harga", "produk", "layanan"},
			Reply: "Informasi bisnis:\n" +
				"• Produk: Tersedia berbagai pilihan\n" +
				"• Harga: Kompetitif dan terjangkau\n" +
				"• Layanan: 24/7 support\n\n" +
				"Untuk info detail, silakan hubungi admin kami.",
		},
		{
			ID:       "location",
			Priority: 50,
			Keywords: []string{"lokasi", "alamat"},
			Reply:    "Lokasi kami:\nJl. Contoh No. 123, Jakarta\n\nJam operasional: 08:00 - 22:00 WIB",
		},
		{
			ID:       "contact",
			Priority: 60,
			Keywords: []string{"kontak", "hubungi"},
			Reply: "Kontak kami:\n" +
				"• WhatsApp: +62 812-3456-7890\n" +
				"• Email: info@contoh.com\n" +
				"• Website: www.contoh.com",
		},
	}
}

// LoadRules reads a rule table from a YAML or JSON file of the form
//
//	default_reply: "..."
//	rules:
//	  - id: greeting
//	    priority: 10
//	    keywords: [halo, hi]
//	    reply: "Halo!"
//
// A missing default_reply falls back to DefaultReply.
func LoadRules(path string) ([]Rule, string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("default_reply", DefaultReply)

	if err := v.ReadInConfig(); err != nil {
		return nil, "", fmt.Errorf("reading rules file %s: %w", path, err)
	}

	var rules []Rule
	if err := v.UnmarshalKey("rules", &rules); err != nil {
		return nil, "", fmt.Errorf("decoding rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, "", fmt.Errorf("rules file %s defines no rules", path)
	}

	return rules, v.GetString("default_reply"), nil
}
