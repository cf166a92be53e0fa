package tags

import "github.com/yohamta/donburi"

var (
	Character  = donburi.NewTag().SetName("Character")
	Weapon     = donburi.NewTag().SetName("Weapon")
	Projectile = donburi.NewTag().SetName("Projectile")
)

// Resolv tags for physics collision
const (
	ResolvSolid      = "solid"
	ResolvCharacter  = "character"
	ResolvProp       = "prop"
	ResolvProjectile = "projectile"
)
