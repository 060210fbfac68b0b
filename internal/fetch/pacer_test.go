// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package fetch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacerSpacesRequests(t *testing.T) {
	pacer := NewPacer(15 * time.Millisecond)

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, pacer.Wait(context.Background()))
		}()
	}
	wg.Wait()

	// Four slots: the first immediate, three more spaced 15ms apart.
	assert.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)
}

func TestPacerNilAndZeroNeverBlock(t *testing.T) {
	var nilPacer *Pacer
	assert.NoError(t, nilPacer.Wait(context.Background()))
	assert.NoError(t, NewPacer(0).Wait(context.Background()))
}

func TestPacerHonorsCancellation(t *testing.T) {
	pacer := NewPacer(time.Hour)
	assert.NoError(t, pacer.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pacer.Wait(ctx), context.DeadlineExceeded)
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), 0))
}
