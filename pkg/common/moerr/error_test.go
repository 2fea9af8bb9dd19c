// Copyright 2023 ColStream Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package moerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	err := NewOutOfRange(context.TODO(), "thread slot %d", 9)
	require.Equal(t, uint16(ErrOutOfRange), err.ErrorCode())
	require.Contains(t, err.Error(), "thread slot 9")
	require.True(t, IsMoErrCode(err, ErrOutOfRange))
	require.False(t, IsMoErrCode(err, ErrInternal))
	require.False(t, IsMoErrCode(nil, ErrOutOfRange))
	require.False(t, IsMoErrCode(errors.New("plain"), ErrOutOfRange))
}

func TestErrorsIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewInvalidInput(context.TODO(), "bad"))
	require.True(t, errors.Is(err, NewInvalidInput(context.TODO(), "other text")))
	require.False(t, errors.Is(err, NewInternalError(context.TODO(), "x")))
	require.True(t, IsMoErrCode(err, ErrInvalidInput))
}
