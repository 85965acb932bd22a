package model

// RoleLabel is a player-season usage role. Exactly one applies per season.
type RoleLabel string

// Role labels.
const (
	RoleEverydayRegular     RoleLabel = "everyday-regular"
	RolePlatoonBat          RoleLabel = "platoon-bat"
	RoleBenchBat            RoleLabel = "bench-bat"
	RolePowerSpecialist     RoleLabel = "power-specialist"
	RoleSpeedSpecialist     RoleLabel = "speed-specialist"
	RolePartTimePower       RoleLabel = "part-time-power"
	RoleContactSpecialist   RoleLabel = "contact-specialist"
	RoleDefensiveSpecialist RoleLabel = "defensive-specialist"
	RoleInsufficientSample  RoleLabel = "insufficient-sample"
)

// RoleLabels lists the full role taxonomy.
var RoleLabels = []RoleLabel{
	RoleEverydayRegular, RolePlatoonBat, RoleBenchBat, RolePowerSpecialist, RoleSpeedSpecialist,
	RolePartTimePower, RoleContactSpecialist, RoleDefensiveSpecialist, RoleInsufficientSample,
}

// AgeBucket places a season on the aging curve.
type AgeBucket string

// Age buckets.
const (
	AgeUnknown   AgeBucket = "unknown"
	AgeRookie    AgeBucket = "rookie"
	AgeAscending AgeBucket = "ascending"
	AgePrime     AgeBucket = "prime"
	AgeLatePrime AgeBucket = "late-prime"
	AgeDecline   AgeBucket = "decline"
)
