// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"reflect"
	"sync"
	"unsafe"

	jsoniter "github.com/json-iterator/go"

	"github.com/riftlab/arena/server/world"
)

// Make sure functions get run first
var json = func() jsoniter.API {
	neverEmpty := func(pointer unsafe.Pointer) bool { return false }

	// Encoders
	jsoniter.RegisterTypeEncoderFunc(reflect.TypeOf(Message{}).String(), encodeMessage, neverEmpty)
	jsoniter.RegisterTypeEncoderFunc(reflect.TypeOf(world.EntityID(0)).String(), encodeEntityID, emptyEntityID)
	jsoniter.RegisterTypeEncoderFunc(reflect.TypeOf(EntityDelta{}).String(), encodeEntityDelta, neverEmpty)

	// Decoders
	jsoniter.RegisterTypeDecoderFunc(reflect.TypeOf(Message{}).String(), decodeMessage)
	jsoniter.RegisterTypeDecoderFunc(reflect.TypeOf(world.EntityID(0)).String(), decodeEntityID)

	return jsoniter.Config{
		IndentionStep:                 0,
		MarshalFloatWith6Digits:       true,
		EscapeHTML:                    false,
		SortMapKeys:                   true,
		UseNumber:                     false,
		DisallowUnknownFields:         false,
		TagKey:                        "json",
		OnlyTaggedField:               false,
		ValidateJsonRawMessage:        false,
		ObjectFieldMustBeSimpleString: true,
		CaseSensitive:                 true,
	}.Froze()
}()

func encodeMessage(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	message := (*Message)(ptr)
	stream.WriteVal(message.messageJSON())
}

func encodeEntityID(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	id := *(*world.EntityID)(ptr)
	// Quoted hex
	stream.SetBuffer(append(id.AppendText(append(stream.Buffer(), '"')), '"'))
}

func emptyEntityID(ptr unsafe.Pointer) bool {
	return *(*world.EntityID)(ptr) == world.EntityIDInvalid
}

func decodeEntityID(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	var id world.EntityID
	if err := id.UnmarshalText(iter.ReadStringAsSlice()); err != nil {
		iter.Error = err
		return
	}
	*(*world.EntityID)(ptr) = id
}

// encodeEntityDelta writes only the field families selected by Mask. A
// removal delta is just id and mask; a first-contact delta additionally
// carries kind and side.
func encodeEntityDelta(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	delta := (*EntityDelta)(ptr)
	snap := &delta.Snap

	stream.WriteObjectStart()
	stream.WriteObjectField("id")
	stream.SetBuffer(append(delta.ID.AppendText(append(stream.Buffer(), '"')), '"'))
	stream.WriteMore()
	stream.WriteObjectField("mask")
	stream.WriteUint16(uint16(delta.Mask))

	if delta.Mask&world.MaskRemoved != 0 {
		stream.WriteObjectEnd()
		return
	}

	if delta.Mask&world.MaskAll == world.MaskAll {
		stream.WriteMore()
		stream.WriteObjectField("kind")
		stream.WriteString(delta.Kind.String())
		stream.WriteMore()
		stream.WriteObjectField("side")
		stream.WriteInt8(int8(delta.Side))
	}

	if delta.Mask&world.MaskPosition != 0 {
		stream.WriteMore()
		stream.WriteObjectField("position")
		stream.WriteVal(snap.Position)
	}
	if delta.Mask&world.MaskHealth != 0 {
		stream.WriteMore()
		stream.WriteObjectField("health")
		stream.WriteFloat32Lossy(snap.Health)
		stream.WriteMore()
		stream.WriteObjectField("maxHealth")
		stream.WriteFloat32Lossy(snap.MaxHealth)
	}
	if delta.Mask&world.MaskResource != 0 {
		stream.WriteMore()
		stream.WriteObjectField("resource")
		stream.WriteFloat32Lossy(snap.Resource)
		stream.WriteMore()
		stream.WriteObjectField("maxResource")
		stream.WriteFloat32Lossy(snap.MaxResource)
	}
	if delta.Mask&world.MaskLevel != 0 {
		stream.WriteMore()
		stream.WriteObjectField("level")
		stream.WriteUint8(snap.Level)
	}
	if delta.Mask&world.MaskEffects != 0 {
		stream.WriteMore()
		stream.WriteObjectField("effects")
		writeSliceOrEmpty(stream, snap.Effects == nil, snap.Effects)
	}
	if delta.Mask&world.MaskAbilities != 0 {
		stream.WriteMore()
		stream.WriteObjectField("abilities")
		writeSliceOrEmpty(stream, snap.Abilities == nil, snap.Abilities)
	}
	if delta.Mask&world.MaskItems != 0 {
		stream.WriteMore()
		stream.WriteObjectField("items")
		writeSliceOrEmpty(stream, snap.Items == nil, snap.Items)
	}
	if delta.Mask&world.MaskTarget != 0 {
		stream.WriteMore()
		stream.WriteObjectField("target")
		stream.SetBuffer(append(snap.Target.AppendText(append(stream.Buffer(), '"')), '"'))
	}
	if delta.Mask&world.MaskState != 0 {
		stream.WriteMore()
		stream.WriteObjectField("state")
		stream.WriteUint8(uint8(snap.State))
		stream.WriteMore()
		stream.WriteObjectField("kills")
		stream.WriteUint16(snap.Kills)
		stream.WriteMore()
		stream.WriteObjectField("deaths")
		stream.WriteUint16(snap.Deaths)
		stream.WriteMore()
		stream.WriteObjectField("assists")
		stream.WriteUint16(snap.Assists)
	}
	if delta.Mask&world.MaskTrinket != 0 {
		stream.WriteMore()
		stream.WriteObjectField("trinket")
		stream.WriteVal(snap.Trinket)
	}
	if delta.Mask&world.MaskGold != 0 {
		stream.WriteMore()
		stream.WriteObjectField("gold")
		stream.WriteInt32(snap.Gold)
	}
	if delta.Mask&world.MaskShields != 0 {
		stream.WriteMore()
		stream.WriteObjectField("shield")
		stream.WriteFloat32Lossy(snap.Shield)
	}
	if delta.Mask&world.MaskPassive != 0 {
		stream.WriteMore()
		stream.WriteObjectField("passive")
		stream.WriteUint8(snap.Passive)
	}
	stream.WriteObjectEnd()
}

// writeSliceOrEmpty writes an empty array for nil slices so clients can
// clear without a null special case.
func writeSliceOrEmpty(stream *jsoniter.Stream, isNil bool, value interface{}) {
	if isNil {
		stream.WriteEmptyArray()
		return
	}
	stream.WriteVal(value)
}

// Buffers large enough to hold most inbounds
var decodeMessagePool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 0, 256)
		return &buf
	},
}

func decodeMessage(ptr unsafe.Pointer, topLevelIter *jsoniter.Iterator) {
	bufPtr := decodeMessagePool.Get().(*[]byte)

	// Read bytes so can read twice
	messageBytes := topLevelIter.SkipAndAppendBytes(*bufPtr)

	// Pool iterator with previous pool
	pool := topLevelIter.Pool()
	iter := pool.BorrowIterator(messageBytes)
	defer pool.ReturnIterator(iter)

	// Interface of *inbound
	var in interface{}

	// Doesn't have to read twice if type is first field
	// If type is found c is > 0
	for c := 0; c < 3; c++ {
		iter.ResetBytes(messageBytes)
		iter.ReadObjectCB(func(i *jsoniter.Iterator, field string) bool {
			if field == "type" {
				// Not already read
				if in == nil {
					messageTypeBytes := i.ReadStringAsSlice()
					inboundType, ok := inboundMessageTypes[messageType(messageTypeBytes)]
					if !ok {
						inboundType = reflect.TypeOf(InvalidInbound{})
					}
					in = reflect.New(inboundType).Interface()

					if !ok {
						in.(*InvalidInbound).messageType = messageType(messageTypeBytes)
					}

					c++
				} else {
					i.Skip()
				}
				return true
			} else if field == "data" {
				// Found type
				if c > 0 {
					i.ReadVal(in)
					c++
					return false // Finished
				} else {
					i.Skip()
				}
			} else {
				i.Skip()
			}
			return true
		})

		if err := iter.Error; err != nil {
			topLevelIter.Error = err
			return
		}

		// No message type
		if c == 0 {
			topLevelIter.Error = errors.New("no inbound message type")
			return
		}
	}

	// Pool messageBytes
	*bufPtr = messageBytes[:0]
	decodeMessagePool.Put(bufPtr)

	// Store data
	message := (*Message)(ptr)
	message.Data = reflect.Indirect(reflect.ValueOf(in)).Interface()
}
