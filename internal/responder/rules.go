package responder

const (
	NameDefault = "default"
	// NameLegacy is the rule order of the second widget variant, which checks
	// skills before the essay award.
	NameLegacy = "legacy"
)

const (
	TopicExperience = "experience"
	TopicAward      = "award"
	TopicSkills     = "skills"
	TopicProjects   = "projects"
	TopicContact    = "contact"
	TopicEvents     = "events"
)

const Fallback = "I’d be happy to tell you about Viola’s experience, skills, projects, or events. Try asking something specific!"

var (
	experienceRule = Rule{
		Topic:    TopicExperience,
		Keywords: []string{"experience"},
		Response: `Viola has <b>four years</b> of experience in sales, including roles at <a href="#timeline">Icea Lion Group</a> and Multi-Choice. She specializes in insurance and customer relationship management.`,
	}
	awardRule = Rule{
		Topic:    TopicAward,
		Keywords: []string{"award", "essay"},
		Response: `In 2024, Viola was <b>second runner-up</b> in the <a href="#projects">Africa Essay Competition</a> in Namibia, organized by Young Insurance Professionals.`,
	}
	skillsRule = Rule{
		Topic:    TopicSkills,
		Keywords: []string{"skill"},
		Response: `Viola’s key skills include: <ul><li>Communication</li><li>Customer Service</li><li>Sales</li><li>Multilingual (English, Luganda, Arabic)</li></ul> See more at <a href="#skills">Skills</a>.`,
	}
	projectsRule = Rule{
		Topic:    TopicProjects,
		Keywords: []string{"project"},
		Response: `Viola’s notable projects include her award-winning essay in the 2024 Africa Essay Competition. Check out her <a href="#projects">Projects</a> section for more!`,
	}
	contactRule = Rule{
		Topic:    TopicContact,
		Keywords: []string{"contact"},
		Response: `Reach Viola at <a href="mailto:chinavioliny@gmail.com">chinavioliny@gmail.com</a> or <a href="tel:+256123456789">+256-123-456-789</a>.`,
	}
	eventsRule = Rule{
		Topic:    TopicEvents,
		Keywords: []string{"event", "gallery"},
		Response: `Viola has attended events like the Africa Essay Competition in Namibia and insurance summits. Explore her <a href="#gallery">Gallery</a> for photos!`,
	}
)

func DefaultRules() []Rule {
	return []Rule{experienceRule, awardRule, skillsRule, projectsRule, contactRule, eventsRule}
}

func LegacyRules() []Rule {
	return []Rule{experienceRule, skillsRule, awardRule, projectsRule, contactRule, eventsRule}
}
