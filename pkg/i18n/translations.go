package i18n

// translations maps message key → language code → format string.
// Format verbs follow fmt.Sprintf conventions.
var translations = map[string]map[string]string{

	// ─── Language change feedback ────────────────────────────────────────────
	"language.changed.title": {
		"en": "Language Changed",
		"hi": "भाषा बदल दी गई",
		"as": "ভাষা সলনি কৰা হ'ল",
	},
	// %s = display name of the new language
	"language.changed.body": {
		"en": "Reloading to apply %s",
		"hi": "%s लागू करने के लिए पुनः लोड हो रहा है",
		"as": "%s প্ৰয়োগ কৰিবলৈ পুনৰ ল'ড কৰা হৈছে",
	},
	"language.change.failed.title": {
		"en": "Error",
		"hi": "त्रुटि",
		"as": "ত্ৰুটি",
	},
	"language.change.failed.body": {
		"en": "Could not change the language",
		"hi": "भाषा बदली नहीं जा सकी",
		"as": "ভাষা সলনি কৰিব পৰা নগ'ল",
	},

	// ─── Admin notifications ─────────────────────────────────────────────────
	"notification.system.title": {
		"en": "System Update",
		"hi": "सिस्टम अपडेट",
		"as": "চিস্টেম আপডেট",
	},
	// %s = DPR title
	"notification.dpr.uploaded": {
		"en": "DPR %s uploaded for evaluation",
		"hi": "डीपीआर %s मूल्यांकन के लिए अपलोड किया गया",
		"as": "DPR %s মূল্যায়নৰ বাবে আপল'ড কৰা হৈছে",
	},
	// %s = DPR title, %s = risk level
	"notification.dpr.evaluated": {
		"en": "DPR %s evaluated: %s risk",
		"hi": "डीपीआर %s का मूल्यांकन हुआ: %s जोखिम",
		"as": "DPR %s মূল্যায়ন কৰা হ'ল: %s বিপদাশংকা",
	},
}
