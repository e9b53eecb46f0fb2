package rank

// relatedTitles maps a user's target role to roles worth surfacing
// alongside it. Static lookup data: loaded once, never mutated.
var relatedTitles = map[string][]string{
	"Backend Developer": {
		"Full Stack Developer",
		"Node.js Developer",
		"Java Developer",
		"Python Developer",
		"Software Engineer",
	},
	"Frontend Developer": {
		"Web Developer",
		"Full Stack Developer",
		"UI Developer",
		"React Developer",
		"Angular Developer",
	},
	"Flutter Developer": {
		"Mobile Developer",
		"iOS Developer",
		"Android Developer",
		"React Native Developer",
	},
	"Data Scientist": {
		"Machine Learning Engineer",
		"AI Engineer",
		"Data Analyst",
		"Data Engineer",
	},
	"Machine Learning Engineer": {
		"AI Engineer",
		"Data Scientist",
		"Deep Learning Engineer",
		"NLP Engineer",
	},
	"AI Engineer": {
		"Machine Learning Engineer",
		"Data Scientist",
		"AI Researcher",
		"Computer Vision Engineer",
	},
	"DevOps Engineer": {
		"Site Reliability Engineer",
		"Platform Engineer",
		"Cloud Engineer",
		"Infrastructure Engineer",
	},
	"Full Stack Developer": {
		"Software Engineer",
		"Backend Developer",
		"Frontend Developer",
		"Web Developer",
	},
}

// genericTitles is the fallback for titles outside the table.
var genericTitles = []string{"Software Engineer", "Developer", "Programmer"}

// RelatedTitles expands a job title into itself plus its related
// roles. Total: the result always starts with the input title.
func RelatedTitles(jobTitle string) []string {
	out := []string{jobTitle}
	if related, ok := relatedTitles[jobTitle]; ok {
		return append(out, related...)
	}
	return append(out, genericTitles...)
}
