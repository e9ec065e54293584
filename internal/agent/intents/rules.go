package intents

// Topics a previous agent turn can be about.
const (
	TopicExperience     Topic = "experience"
	TopicCertifications Topic = "certifications"
	TopicProjectDetail  Topic = "project_detail"
)

// DefaultTopics lists the keywords that put an agent turn on a topic.
var DefaultTopics = map[Topic][]string{
	TopicExperience: {
		"experience", "anubhav", "naukri", "अनुभव", "नौकरी",
	},
	TopicCertifications: {
		"certif", "license", "licence", "praman", "प्रमाणपत्र", "सर्टिफिकेट",
	},
	TopicProjectDetail: {
		"more about your project", "about the project", "project in more detail",
		"tools or technologies", "technologies you used", "what you built",
	},
}

// DefaultRules covers English and Hindi (Devanagari and romanized).
var DefaultRules = []Rule{
	// Explicitly declining work experience.
	{DeclineExperience, "no experience", Contains, ""},
	{DeclineExperience, "no work experience", Contains, ""},
	{DeclineExperience, "don't have experience", Contains, ""},
	{DeclineExperience, "don't have any experience", Contains, ""},
	{DeclineExperience, "don't have work experience", Contains, ""},
	{DeclineExperience, "don't have any work experience", Contains, ""},
	{DeclineExperience, "do not have experience", Contains, ""},
	{DeclineExperience, "do not have any experience", Contains, ""},
	{DeclineExperience, "do not have any work experience", Contains, ""},
	{DeclineExperience, "never worked", Contains, ""},
	{DeclineExperience, "haven't worked", Contains, ""},
	{DeclineExperience, "have not worked", Contains, ""},
	{DeclineExperience, "not worked anywhere", Contains, ""},
	{DeclineExperience, "i am a fresher", Contains, ""},
	{DeclineExperience, "i'm a fresher", Contains, ""},
	{DeclineExperience, "skip experience", Contains, ""},
	{DeclineExperience, "anubhav nahi", Contains, ""},
	{DeclineExperience, "experience nahi", Contains, ""},
	{DeclineExperience, "kaam nahi kiya", Contains, ""},
	{DeclineExperience, "अनुभव नहीं", Contains, ""},
	{DeclineExperience, "कोई अनुभव नहीं", Contains, ""},
	{DeclineExperience, "काम नहीं किया", Contains, ""},
	{DeclineExperience, "no", Exact, TopicExperience},
	{DeclineExperience, "nope", Exact, TopicExperience},
	{DeclineExperience, "none", Exact, TopicExperience},
	{DeclineExperience, "fresher", Exact, TopicExperience},
	{DeclineExperience, "not yet", Exact, TopicExperience},
	{DeclineExperience, "no i don't", Prefix, TopicExperience},
	{DeclineExperience, "no i do not", Prefix, TopicExperience},
	{DeclineExperience, "nahi", Exact, TopicExperience},
	{DeclineExperience, "nahin", Exact, TopicExperience},
	{DeclineExperience, "नहीं", Exact, TopicExperience},
	{DeclineExperience, "नहीं है", Exact, TopicExperience},

	// Declining certifications; only meaningful right after being asked.
	{DeclineCertifications, "no", Exact, TopicCertifications},
	{DeclineCertifications, "nope", Exact, TopicCertifications},
	{DeclineCertifications, "none", Exact, TopicCertifications},
	{DeclineCertifications, "nothing", Exact, TopicCertifications},
	{DeclineCertifications, "skip", Exact, TopicCertifications},
	{DeclineCertifications, "no i don't", Prefix, TopicCertifications},
	{DeclineCertifications, "no i do not", Prefix, TopicCertifications},
	{DeclineCertifications, "no certificate", Contains, TopicCertifications},
	{DeclineCertifications, "no certificates", Contains, TopicCertifications},
	{DeclineCertifications, "no certification", Contains, TopicCertifications},
	{DeclineCertifications, "no certifications", Contains, TopicCertifications},
	{DeclineCertifications, "don't have any", Contains, TopicCertifications},
	{DeclineCertifications, "do not have any", Contains, TopicCertifications},
	{DeclineCertifications, "don't have certif", Contains, TopicCertifications},
	{DeclineCertifications, "not certified", Contains, TopicCertifications},
	{DeclineCertifications, "nahi", Exact, TopicCertifications},
	{DeclineCertifications, "koi nahi", Contains, TopicCertifications},
	{DeclineCertifications, "नहीं", Exact, TopicCertifications},
	{DeclineCertifications, "कोई नहीं", Contains, TopicCertifications},
	{DeclineCertifications, "प्रमाणपत्र नहीं", Contains, TopicCertifications},

	// Negative before affirmative: "don't generate" must not read as yes.
	{Negative, "no", Exact, ""},
	{Negative, "nope", Exact, ""},
	{Negative, "later", Exact, ""},
	{Negative, "not now", Contains, ""},
	{Negative, "not yet", Contains, ""},
	{Negative, "don't", Contains, ""},
	{Negative, "do not", Contains, ""},
	{Negative, "hold on", Contains, ""},
	{Negative, "wait", Contains, ""},
	{Negative, "nahi", Exact, ""},
	{Negative, "baad mein", Contains, ""},
	{Negative, "नहीं", Exact, ""},
	{Negative, "बाद में", Contains, ""},

	{Affirmative, "yes", Exact, ""},
	{Affirmative, "yeah", Exact, ""},
	{Affirmative, "yep", Exact, ""},
	{Affirmative, "ok", Exact, ""},
	{Affirmative, "okay", Exact, ""},
	{Affirmative, "sure", Exact, ""},
	{Affirmative, "haan", Exact, ""},
	{Affirmative, "ha", Exact, ""},
	{Affirmative, "हाँ", Exact, ""},
	{Affirmative, "हां", Exact, ""},
	{Affirmative, "yes please", Prefix, ""},
	{Affirmative, "generate", Contains, ""},
	{Affirmative, "proceed", Contains, ""},
	{Affirmative, "download", Contains, ""},
	{Affirmative, "go ahead", Contains, ""},
	{Affirmative, "create my cv", Contains, ""},
	{Affirmative, "make my cv", Contains, ""},
	{Affirmative, "theek hai", Contains, ""},
	{Affirmative, "बनाओ", Contains, ""},
}
