package domain

import (
	"regexp"
	"strings"
)

// emailPattern matches a standard local-part@domain address inside free text.
var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// personalDomains lists free/consumer/disposable e-mail providers. An
// address is kept only when its domain is in this set; addresses at
// organization-owned domains are discarded.
var personalDomains = map[string]struct{}{}

func init() {
	for _, d := range []string{
		"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "aol.com", "icloud.com", "mail.com",
		"protonmail.com", "proton.me", "tutanota.com", "tuta.io", "pm.me", "protonmail.ch", "tutanota.de",
		"gmx.com", "gmx.de", "gmx.net", "web.de", "yandex.com", "yandex.ru", "mail.ru", "rambler.ru", "seznam.cz",
		"fastmail.com", "zoho.com", "hushmail.com", "keemail.me", "orange.fr", "free.fr", "laposte.net", "sfr.fr",
		"libero.it", "alice.it", "virgilio.it", "wp.pl", "onet.pl", "interia.pl", "mail.ee", "zone.ee",
		"mail.hu", "freemail.hu", "azet.sk", "zoznam.sk", "email.cz", "centrum.cz", "bk.ru", "inbox.ru", "list.ru",
		"disroot.org", "riseup.net", "cock.li", "autistici.org", "gmail.co.uk", "yahoo.co.uk", "hotmail.co.uk",
		"gmail.de", "yahoo.de", "hotmail.de", "gmail.fr", "yahoo.fr", "hotmail.fr", "gmail.it", "yahoo.it", "hotmail.it",
		"gmail.es", "yahoo.es", "hotmail.es", "inbox.com", "lycos.com", "excite.com", "hush.com", "juno.com",
		"earthlink.net", "aim.com", "btinternet.com", "ntlworld.com", "blueyonder.co.uk", "talktalk.net",
		"vtext.com", "tmomail.net", "messaging.sprintpcs.com", "vmobl.com", "mmst5.tracfone.com", "mymetropcs.com",
		"edu.com", "alumni.", ".ac.", ".edu.",
	} {
		personalDomains[d] = struct{}{}
	}
}

// IsPersonalEmail reports whether the address belongs to a known
// free/consumer provider. The domain after the last "@" is compared
// case-insensitively; an address without "@" is never personal.
func IsPersonalEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	_, ok := personalDomains[domain]
	return ok
}

// ExtractEmails returns every e-mail-shaped substring of text, in order of
// appearance.
func ExtractEmails(text string) []string {
	return emailPattern.FindAllString(text, -1)
}
