package main

import (
	"fmt"

	"github.com/arklib/igcore/internal/registry"
)

func parseGame(s string) (registry.Game, error) {
	switch s {
	case "Unknown", "":
		return registry.GameUnknown, nil
	case "TombRaiderAnniversary":
		return registry.GameTombRaiderAnniversary, nil
	case "TombRaiderUnderworld":
		return registry.GameTombRaiderUnderworld, nil
	case "TombRaiderLegend":
		return registry.GameTombRaiderLegend, nil
	case "GuitarHero":
		return registry.GameGuitarHero, nil
	case "MinecraftLegends":
		return registry.GameMinecraftLegends, nil
	}
	return registry.GameUnknown, fmt.Errorf("unknown game %q", s)
}

func parsePlatform(s string) (registry.Platform, error) {
	switch s {
	case "Win32":
		return registry.PlatformWin32, nil
	case "Win64", "":
		return registry.PlatformWin64, nil
	case "Xbox360":
		return registry.PlatformXbox360, nil
	case "PS3":
		return registry.PlatformPS3, nil
	case "WiiU":
		return registry.PlatformWiiU, nil
	case "Switch":
		return registry.PlatformSwitch, nil
	}
	return registry.PlatformUnknown, fmt.Errorf("unknown platform %q", s)
}

func newRegistry() (*registry.Registry, error) {
	game, err := parseGame(gameFlag)
	if err != nil {
		return nil, err
	}
	platform, err := parsePlatform(platformFlag)
	if err != nil {
		return nil, err
	}
	return registry.New(game, platform), nil
}
