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
	"runtime"
	"testing"

	"github.com/ajroetker/go-tiling/hwy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPlatform(t *testing.T) {
	pf := DefaultPlatform()
	assert.Equal(t, runtime.GOMAXPROCS(0), pf.TotalCoreNum)
	assert.Equal(t, 192<<10, pf.UBSize)
	require.NoError(t, pf.Validate())
}

func TestPlatformFromEnv(t *testing.T) {
	t.Setenv("HWY_CORE_NUM", "3")
	t.Setenv("HWY_UB_SIZE", "65536")
	t.Setenv("HWY_BLOCK_BYTES", "64")
	t.Setenv("HWY_BURST_BYTES", "")

	pf, err := PlatformFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Platform{TotalCoreNum: 3, UBSize: 65536, BlockBytes: 64, BurstBytes: defaultBurstBytes}, pf)
}

func TestPlatformFromEnvErrors(t *testing.T) {
	t.Run("Malformed", func(t *testing.T) {
		t.Setenv("HWY_UB_SIZE", "lots")
		_, err := PlatformFromEnv()
		assert.ErrorContains(t, err, "HWY_UB_SIZE")
	})
	t.Run("NoLanes", func(t *testing.T) {
		t.Setenv("HWY_CORE_NUM", "0")
		_, err := PlatformFromEnv()
		assert.ErrorIs(t, err, ErrCoreCount)
	})
	t.Run("OddBlock", func(t *testing.T) {
		t.Setenv("HWY_BLOCK_BYTES", "12")
		_, err := PlatformFromEnv()
		assert.ErrorIs(t, err, ErrInvalidPlan)
	})
}

func TestDType(t *testing.T) {
	for _, d := range []DType{Float32, Float64, Float16, BFloat16} {
		got, err := ParseDType(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDType("int8")
	assert.Error(t, err)

	assert.Equal(t, Float32, DTypeOf[float32]())
	assert.Equal(t, Float64, DTypeOf[float64]())
	assert.Equal(t, Float16, DTypeOf[hwy.Float16]())
	assert.Equal(t, BFloat16, DTypeOf[hwy.BFloat16]())

	assert.Equal(t, hwy.SizeOf[hwy.BFloat16](), BFloat16.Size())
	assert.Equal(t, hwy.SizeOf[float64](), Float64.Size())
	assert.True(t, Float16.IsNarrow())
	assert.False(t, Float32.IsNarrow())
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "single", Single.String())
	assert.Equal(t, "small", Small.String())
	assert.Equal(t, "big", Big.String())
	assert.Equal(t, "Strategy(7)", Strategy(7).String())
}
