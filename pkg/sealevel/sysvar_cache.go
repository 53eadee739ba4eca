package sealevel

import (
	"github.com/Overclock-Validator/liquidstake/pkg/accounts"
)

// SysvarCache holds the sysvars native programs read during execution.
// It is filled once per transaction so every instruction observes the
// same clock.
type SysvarCache struct {
	clock SysvarClock
	rent  SysvarRent
}

func NewSysvarCache(clock SysvarClock, rent SysvarRent) SysvarCache {
	return SysvarCache{clock: clock, rent: rent}
}

func LoadSysvarCache(accts accounts.Accounts) (SysvarCache, error) {
	clock, err := ReadClockSysvar(accts)
	if err != nil {
		return SysvarCache{}, err
	}
	rent, err := ReadRentSysvar(accts)
	if err != nil {
		return SysvarCache{}, err
	}
	return NewSysvarCache(clock, rent), nil
}

func (sysvarCache *SysvarCache) Clock() *SysvarClock {
	return &sysvarCache.clock
}

func (sysvarCache *SysvarCache) Rent() *SysvarRent {
	return &sysvarCache.rent
}
