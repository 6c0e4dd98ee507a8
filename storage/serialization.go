// Copyright 2025 Poiesic Systems
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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/driftlens/core"
)

// IDMUS serializes IDs.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(v core.ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v core.ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return core.ID(u), n, err
}

func (idMUS) Size(v core.ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

// timeMUS stores timestamps as Unix microseconds.
var timeMUS = timeMicroMUS{}

type timeMicroMUS struct{}

func (timeMicroMUS) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (timeMicroMUS) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func (timeMicroMUS) Size(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}

// vectorMUS stores a length prefix followed by fixed-width float32 values.
var vectorMUS = float32SliceMUS{}

type float32SliceMUS struct{}

func (float32SliceMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func (float32SliceMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 || length > (len(bs)-n)/4 {
		return nil, n, fmt.Errorf("%w: vector length %d", ErrSerializationFailed, length)
	}
	if length == 0 {
		return nil, n, nil
	}
	v = make([]float32, length)
	for i := range v {
		f, m, err := raw.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

func (float32SliceMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

// ConditionMUS serializes corpus conditions. Field order is part of the
// on-disk format.
var ConditionMUS = conditionMUS{}

type conditionMUS struct{}

func (conditionMUS) Marshal(v core.Condition, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Label, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.SourceID, bs[n:])
	n += ord.String.Marshal(v.Snippet, bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += timeMUS.Marshal(v.InsertedAt, bs[n:])
	return n + timeMUS.Marshal(v.UpdatedAt, bs[n:])
}

func (conditionMUS) Unmarshal(bs []byte) (v core.Condition, n int, err error) {
	var m int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	for _, field := range []*string{&v.Label, &v.Title, &v.SourceID, &v.Snippet} {
		if *field, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			n += m
			return
		}
		n += m
	}
	if v.Vector, m, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		n += m
		return
	}
	n += m
	if v.InsertedAt, m, err = timeMUS.Unmarshal(bs[n:]); err != nil {
		n += m
		return
	}
	n += m
	v.UpdatedAt, m, err = timeMUS.Unmarshal(bs[n:])
	n += m
	return
}

func (conditionMUS) Size(v core.Condition) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Label)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.SourceID)
	size += ord.String.Size(v.Snippet)
	size += vectorMUS.Size(v.Vector)
	size += timeMUS.Size(v.InsertedAt)
	return size + timeMUS.Size(v.UpdatedAt)
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, IDMUS.Size(id))
	IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := IDMUS.Unmarshal(data)
	return id, err
}

// MarshalCondition serializes a Condition to bytes.
func MarshalCondition(condition *core.Condition) []byte {
	buf := make([]byte, ConditionMUS.Size(*condition))
	ConditionMUS.Marshal(*condition, buf)
	return buf
}

// UnmarshalCondition deserializes a Condition from bytes.
func UnmarshalCondition(data []byte) (*core.Condition, error) {
	condition, _, err := ConditionMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &condition, nil
}
