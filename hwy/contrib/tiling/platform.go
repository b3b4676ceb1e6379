// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tiling

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// Platform describes the lane array a plan targets.
type Platform struct {
	// TotalCoreNum is the number of lanes launched.
	TotalCoreNum int
	// UBSize is the local memory per lane, in bytes.
	UBSize int
	// BlockBytes is the transfer granularity.
	BlockBytes int
	// BurstBytes is the smallest row that amortizes one transfer by itself.
	// Shorter rows are grouped.
	BurstBytes int
}

const (
	defaultUBSize     = 192 << 10
	defaultBlockBytes = 32
	defaultBurstBytes = 512
)

// DefaultPlatform uses one lane per GOMAXPROCS.
func DefaultPlatform() Platform {
	return Platform{
		TotalCoreNum: runtime.GOMAXPROCS(0),
		UBSize:       defaultUBSize,
		BlockBytes:   defaultBlockBytes,
		BurstBytes:   defaultBurstBytes,
	}
}

// PlatformFromEnv returns DefaultPlatform with the HWY_CORE_NUM,
// HWY_UB_SIZE, HWY_BLOCK_BYTES and HWY_BURST_BYTES overrides applied.
func PlatformFromEnv() (Platform, error) {
	p := DefaultPlatform()
	for _, v := range []struct {
		env string
		dst *int
	}{
		{"HWY_CORE_NUM", &p.TotalCoreNum},
		{"HWY_UB_SIZE", &p.UBSize},
		{"HWY_BLOCK_BYTES", &p.BlockBytes},
		{"HWY_BURST_BYTES", &p.BurstBytes},
	} {
		s := os.Getenv(v.env)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return Platform{}, fmt.Errorf("tiling: parsing %s: %w", v.env, err)
		}
		*v.dst = n
	}
	if err := p.Validate(); err != nil {
		return Platform{}, err
	}
	return p, nil
}

// Validate checks that the platform can host a plan.
func (p Platform) Validate() error {
	switch {
	case p.TotalCoreNum <= 0:
		return fmt.Errorf("%w: %d lanes", ErrCoreCount, p.TotalCoreNum)
	case p.UBSize <= 0:
		return fmt.Errorf("%w: local memory of %d bytes", ErrCapacity, p.UBSize)
	case p.BlockBytes <= 0 || p.BlockBytes%8 != 0:
		return fmt.Errorf("%w: block of %d bytes is not a positive multiple of 8", ErrInvalidPlan, p.BlockBytes)
	case p.BurstBytes < 0:
		return fmt.Errorf("%w: burst of %d bytes", ErrInvalidPlan, p.BurstBytes)
	}
	return nil
}
