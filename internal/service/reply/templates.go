package reply

// Template is one pre-approved outbound message for use outside the
// free-text session window.
type Template struct {
	ID     string
	Intent string
	Text   string
}

// Seed returns the approved Turkish template set. Every template uses
// the formal register and stays well under the reply length limit.
func Seed() []Template {
	return []Template{
		{
			ID:     "tpl-greeting",
			Intent: "greeting",
			Text:   "Merhaba! Mesajınız için teşekkür ederiz. Size en kısa sürede dönüş yapacağız.",
		},
		{
			ID:     "tpl-appointment",
			Intent: "appointment",
			Text:   "Merhaba! Randevu talebiniz bize ulaştı. Müsait saatlerimizi paylaşmak için sizinle en kısa sürede iletişime geçeceğiz.",
		},
		{
			ID:     "tpl-pricing",
			Intent: "pricing",
			Text:   "Merhaba! Fiyat bilgisi talebiniz için teşekkür ederiz. Güncel fiyat listemizi size en kısa sürede ileteceğiz.",
		},
		{
			ID:     "tpl-general",
			Intent: "general",
			Text:   "Merhaba! Mesajınız bize ulaştı. En kısa sürede size dönüş yapacağız.",
		},
	}
}

// TemplateStore serves the approved template set from memory.
type TemplateStore struct {
	items []Template
}

// NewTemplateStore returns a store preloaded with the supplied templates.
func NewTemplateStore(items []Template) *TemplateStore {
	return &TemplateStore{items: append([]Template(nil), items...)}
}

// List returns the approved templates.
func (s *TemplateStore) List() []Template {
	return append([]Template(nil), s.items...)
}

// ForIntent picks the template matching the detected intent, falling
// back to the general template when no exact match exists.
func (s *TemplateStore) ForIntent(intent string) Template {
	var general Template
	for _, item := range s.items {
		if item.Intent == intent {
			return item
		}
		if item.Intent == "general" {
			general = item
		}
	}
	if general.ID == "" && len(s.items) > 0 {
		return s.items[len(s.items)-1]
	}
	return general
}
