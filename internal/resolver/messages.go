package resolver

import "fmt"

// Messages renders notification text for one locale.
type Messages struct {
	SMSTitle  func(name string) string
	CallTitle string
	CallBody  func(name string) string
}

// Locales with a message catalog.
const (
	LocaleEnglish    = "en"
	LocaleIndonesian = "id"
)

var catalogs = map[string]Messages{
	LocaleEnglish: {
		SMSTitle:  func(name string) string { return "Message from " + name },
		CallTitle: "Incoming call",
		CallBody:  func(name string) string { return "From: " + name },
	},
	LocaleIndonesian: {
		SMSTitle:  func(name string) string { return "Pesan dari " + name },
		CallTitle: "Panggilan Masuk",
		CallBody:  func(name string) string { return "Dari: " + name },
	},
}

// Catalog returns the messages for locale.
func Catalog(locale string) (Messages, error) {
	m, ok := catalogs[locale]
	if !ok {
		return Messages{}, fmt.Errorf("resolver: no message catalog for locale %q", locale)
	}
	return m, nil
}
