// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"math/rand"
	"sync"
)

var randPool = sync.Pool{
	New: func() interface{} {
		return rand.New(rand.NewSource(rand.Int63()))
	},
}

func getRand() *rand.Rand {
	return randPool.Get().(*rand.Rand)
}

func poolRand(r *rand.Rand) {
	randPool.Put(r)
}

// prob has a p probability of returning true.
// Uses float64 for small probabilities.
func prob(r *rand.Rand, p float64) bool {
	return r.Float64() < p
}
