package messaging

// Localized message texts keyed by language then string id. English is the
// fallback for languages and ids the catalog does not carry.
var catalog = map[string]map[string]string{
	"en": {
		"enrolment_student_subject": "Welcome to %s",
		"enrolment_student_body":    "Hi %s,\n\nThank you for your payment. You are now enrolled in \"%s\".",
		"enrolment_teacher_subject": "New enrolment in %s",
		"enrolment_teacher_body":    "%s has enrolled in \"%s\" through a PayPal payment.",
		"enrolment_admin_subject":   "New enrolment in %s",
		"enrolment_admin_body":      "%s has enrolled in \"%s\" through a PayPal payment (transaction %s).",
		"pending_subject":           "Payment pending",
		"pending_body":              "Your payment for \"%s\" has been received but is still pending. You will be enrolled once it clears.",
		"alert_subject":             "PayPal IPN alert: %s",
	},
	"id": {
		"enrolment_student_subject": "Selamat datang di %s",
		"enrolment_student_body":    "Halo %s,\n\nTerima kasih atas pembayaran Anda. Anda sekarang terdaftar di \"%s\".",
		"enrolment_teacher_subject": "Pendaftaran baru di %s",
		"enrolment_teacher_body":    "%s telah mendaftar di \"%s\" melalui pembayaran PayPal.",
		"enrolment_admin_subject":   "Pendaftaran baru di %s",
		"enrolment_admin_body":      "%s telah mendaftar di \"%s\" melalui pembayaran PayPal (transaksi %s).",
		"pending_subject":           "Pembayaran tertunda",
		"pending_body":              "Pembayaran Anda untuk \"%s\" telah diterima tetapi masih tertunda. Anda akan didaftarkan setelah pembayaran selesai.",
	},
}

// T resolves a string id for a language with English fallback.
func T(lang, id string) string {
	if langStrings, ok := catalog[lang]; ok {
		if s, ok := langStrings[id]; ok {
			return s
		}
	}
	return catalog["en"][id]
}
