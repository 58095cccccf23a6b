// 指示: miu200521358
package gltf

import (
	"encoding/binary"
	"math"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
)

// accessor.componentType
const (
	ComponentTypeByte          = 5120
	ComponentTypeUnsignedByte  = 5121
	ComponentTypeShort         = 5122
	ComponentTypeUnsignedShort = 5123
	ComponentTypeUnsignedInt   = 5125
	ComponentTypeFloat         = 5126
)

// maxZeroFilledAccessorCount はbufferView未指定accessorで確保する件数の上限。
const maxZeroFilledAccessorCount = 1 << 20

// ComponentCount はaccessor.type の要素数を返す。未知の型は0。
func ComponentCount(accessorType string) int {
	switch accessorType {
	case "SCALAR":
		return 1
	case "VEC2":
		return 2
	case "VEC3":
		return 3
	case "VEC4", "MAT2":
		return 4
	case "MAT3":
		return 9
	case "MAT4":
		return 16
	}
	return 0
}

// componentSize は componentType のバイト数を返す。未知の型は0。
func componentSize(componentType int) int {
	switch componentType {
	case ComponentTypeByte, ComponentTypeUnsignedByte:
		return 1
	case ComponentTypeShort, ComponentTypeUnsignedShort:
		return 2
	case ComponentTypeUnsignedInt, ComponentTypeFloat:
		return 4
	}
	return 0
}

// ReadAccessorFloats はaccessorの値をfloat64のフラット配列で返す。
// 正規化整数はglTFの規定どおり [-1,1] / [0,1] へ変換する。
func (d *Document) ReadAccessorFloats(accessorIndex int) ([]float64, int, error) {
	if accessorIndex < 0 || accessorIndex >= len(d.Accessors) {
		return nil, 0, io_common.NewIoParseFailed("accessor index が不正です: %d", nil, accessorIndex)
	}
	accessor := d.Accessors[accessorIndex]
	components := ComponentCount(accessor.Type)
	size := componentSize(accessor.ComponentType)
	if components == 0 || size == 0 {
		return nil, 0, io_common.NewIoFormatNotSupported(
			"accessor形式が未対応です: type=%s componentType=%d", nil, accessor.Type, accessor.ComponentType)
	}
	if accessor.Count < 0 || accessor.ByteOffset < 0 {
		return nil, 0, io_common.NewIoParseFailed(
			"accessorの件数/オフセットが不正です: index=%d count=%d byteOffset=%d",
			nil, accessorIndex, accessor.Count, accessor.ByteOffset)
	}
	if accessor.BufferView == nil {
		// bufferView未指定は全要素0として扱う。
		if accessor.Count > maxZeroFilledAccessorCount {
			return nil, 0, io_common.NewIoParseFailed("accessorの件数が多すぎます: index=%d count=%d", nil, accessorIndex, accessor.Count)
		}
		return make([]float64, accessor.Count*components), components, nil
	}
	data, stride, err := d.bufferViewBytes(*accessor.BufferView)
	if err != nil {
		return nil, 0, err
	}
	elementSize := components * size
	if stride == 0 {
		stride = elementSize
	}
	if stride < elementSize {
		return nil, 0, io_common.NewIoParseFailed("bufferView.byteStride が要素サイズより小さいです: index=%d", nil, accessorIndex)
	}
	if accessor.Count > 0 && !accessorFits(accessor.ByteOffset, accessor.Count, stride, elementSize, len(data)) {
		return nil, 0, io_common.NewIoParseFailed("accessorがbufferView範囲外です: index=%d", nil, accessorIndex)
	}
	values := make([]float64, accessor.Count*components)
	for i := 0; i < accessor.Count; i++ {
		base := accessor.ByteOffset + i*stride
		for c := 0; c < components; c++ {
			values[i*components+c] = readComponent(data[base+c*size:], accessor.ComponentType, accessor.Normalized)
		}
	}
	return values, components, nil
}

// accessorFits は count 件の要素が長さ dataLen に収まるかを桁あふれ無しで判定する。
func accessorFits(byteOffset, count, stride, elementSize, dataLen int) bool {
	if byteOffset > dataLen || elementSize > dataLen-byteOffset {
		return false
	}
	return count-1 <= (dataLen-byteOffset-elementSize)/stride
}

// bufferViewBytes はbufferViewの実データとストライドを返す。
func (d *Document) bufferViewBytes(viewIndex int) ([]byte, int, error) {
	if viewIndex < 0 || viewIndex >= len(d.BufferViews) {
		return nil, 0, io_common.NewIoParseFailed("bufferView index が不正です: %d", nil, viewIndex)
	}
	view := d.BufferViews[viewIndex]
	if view.Buffer < 0 || view.Buffer >= len(d.binChunks) || d.binChunks[view.Buffer] == nil {
		return nil, 0, io_common.NewIoParseFailed("buffer が見つかりません: %d", nil, view.Buffer)
	}
	buffer := d.binChunks[view.Buffer]
	if view.ByteOffset < 0 || view.ByteLength < 0 || view.ByteStride < 0 ||
		view.ByteOffset > len(buffer) || view.ByteLength > len(buffer)-view.ByteOffset {
		return nil, 0, io_common.NewIoParseFailed("bufferView範囲が不正です: %d", nil, viewIndex)
	}
	return buffer[view.ByteOffset : view.ByteOffset+view.ByteLength], view.ByteStride, nil
}

// readComponent は1要素を読み取る。
func readComponent(b []byte, componentType int, normalized bool) float64 {
	switch componentType {
	case ComponentTypeFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case ComponentTypeByte:
		v := float64(int8(b[0]))
		if normalized {
			return math.Max(v/127.0, -1.0)
		}
		return v
	case ComponentTypeUnsignedByte:
		v := float64(b[0])
		if normalized {
			return v / 255.0
		}
		return v
	case ComponentTypeShort:
		v := float64(int16(binary.LittleEndian.Uint16(b)))
		if normalized {
			return math.Max(v/32767.0, -1.0)
		}
		return v
	case ComponentTypeUnsignedShort:
		v := float64(binary.LittleEndian.Uint16(b))
		if normalized {
			return v / 65535.0
		}
		return v
	case ComponentTypeUnsignedInt:
		return float64(binary.LittleEndian.Uint32(b))
	}
	return 0
}
