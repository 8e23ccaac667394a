package transforms

import (
	"github.com/reglet-dev/credbind/internal/domain/binding"
	"github.com/reglet-dev/credbind/internal/domain/credentials"
)

// defaults is the static table of built-in binding types.
var defaults = []struct {
	transform  binding.Transform
	descriptor binding.Descriptor
}{
	{
		descriptor: binding.Descriptor{
			Type:        TypeUsernameColonPasswordBase64,
			DisplayName: "Username and password (conjoined, Base64)",
			Accepts:     credentials.CapabilityUsernamePassword,
		},
		transform: binding.TransformFunc(UsernameColonPasswordBase64),
	},
	{
		descriptor: binding.Descriptor{
			Type:        TypeUsernameColonPassword,
			DisplayName: "Username and password (conjoined)",
			Accepts:     credentials.CapabilityUsernamePassword,
		},
		transform: binding.TransformFunc(UsernameColonPassword),
	},
	{
		descriptor: binding.Descriptor{
			Type:        TypeUsernamePassword,
			DisplayName: "Username and password (separated)",
			Accepts:     credentials.CapabilityUsernamePassword,
		},
		transform: binding.TransformFunc(UsernamePassword),
	},
	{
		descriptor: binding.Descriptor{
			Type:        TypeString,
			DisplayName: "Secret text",
			Accepts:     credentials.CapabilitySecretText,
		},
		transform: binding.TransformFunc(SecretText),
	},
	{
		descriptor: binding.Descriptor{
			Type:              TypeFile,
			DisplayName:       "Secret file",
			Accepts:           credentials.CapabilitySecretFile,
			RequiresWorkspace: true,
		},
		transform: binding.TransformFunc(SecretFile),
	},
}

// RegisterDefaults registers the built-in binding types.
func RegisterDefaults(registry *binding.Registry) error {
	for _, d := range defaults {
		if err := registry.Register(d.descriptor, d.transform); err != nil {
			return err
		}
	}
	return nil
}

// NewDefaultRegistry returns a sealed registry holding the built-in types.
func NewDefaultRegistry() *binding.Registry {
	registry := binding.NewRegistry()
	if err := RegisterDefaults(registry); err != nil {
		// The table is static; a failure here is a programming error.
		panic(err)
	}
	registry.Seal()
	return registry
}
