package models

// Programs is the fixed set of offerings an applicant can choose from.
var Programs = []string{
	"Full Stack Development",
	"Data Science & Analytics",
	"AI & Machine Learning",
	"Mobile App Development",
	"Cloud Infrastructure",
	"Cybersecurity",
	"UI/UX Design",
	"DevOps Engineering",
}

var TimeCommitments = []string{
	"Part-time (10-20 hours/week)",
	"Full-time (40+ hours/week)",
	"Flexible",
}

var SkillLevels = []string{
	"Beginner",
	"Intermediate",
	"Advanced",
	"Expert",
}

func ValidProgram(program string) bool {
	return contains(Programs, program)
}

func ValidTimeCommitment(commitment string) bool {
	return contains(TimeCommitments, commitment)
}

func ValidSkillLevel(level string) bool {
	return contains(SkillLevels, level)
}
