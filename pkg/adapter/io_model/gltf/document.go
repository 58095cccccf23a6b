// 指示: miu200521358
// Package gltf はVRM/モーション読込で共有するglTF 2.0文書の解析を提供する。
package gltf

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/io_common"
)

const (
	glbHeaderLength   = 12
	glbChunkHeadSize  = 8
	glbMagic          = 0x46546C67
	glbJSONChunkType  = 0x4E4F534A
	glbBINChunkType   = 0x004E4942
	glbMinValidLength = glbHeaderLength + glbChunkHeadSize
	dataURIPrefix     = "data:"
	base64Marker      = ";base64,"
)

// Document はglTFトップレベル要素のうち読込に必要なもの。
type Document struct {
	Asset          Asset                      `json:"asset"`
	Buffers        []Buffer                   `json:"buffers"`
	BufferViews    []BufferView               `json:"bufferViews"`
	Accessors      []Accessor                 `json:"accessors"`
	Animations     []Animation                `json:"animations"`
	ExtensionsUsed []string                   `json:"extensionsUsed"`
	Nodes          []Node                     `json:"nodes"`
	Extensions     map[string]json.RawMessage `json:"extensions"`
	Scenes         []Scene                    `json:"scenes"`
	Scene          int                        `json:"scene"`

	// binChunks は buffer index 毎の実データ。
	binChunks [][]byte
}

// Asset はglTF asset要素。
type Asset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

// Scene はglTF scene要素。
type Scene struct {
	Nodes []int `json:"nodes"`
}

// Node はglTF node要素。
type Node struct {
	Name        string    `json:"name"`
	Mesh        *int      `json:"mesh"`
	Skin        *int      `json:"skin"`
	Children    []int     `json:"children"`
	Matrix      []float64 `json:"matrix"`
	Translation []float64 `json:"translation"`
	Rotation    []float64 `json:"rotation"`
	Scale       []float64 `json:"scale"`
}

// Buffer はglTF buffer要素。
type Buffer struct {
	ByteLength int    `json:"byteLength"`
	URI        string `json:"uri"`
}

// BufferView はglTF bufferView要素。
type BufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	ByteStride int `json:"byteStride"`
}

// Accessor はglTF accessor要素。
type Accessor struct {
	BufferView    *int      `json:"bufferView"`
	ByteOffset    int       `json:"byteOffset"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Normalized    bool      `json:"normalized"`
	Max           []float64 `json:"max"`
	Min           []float64 `json:"min"`
}

// Animation はglTF animation要素。
type Animation struct {
	Name     string             `json:"name"`
	Channels []AnimationChannel `json:"channels"`
	Samplers []AnimationSampler `json:"samplers"`
}

// AnimationChannel はglTF animation.channels要素。
type AnimationChannel struct {
	Sampler int                    `json:"sampler"`
	Target  AnimationChannelTarget `json:"target"`
}

// AnimationChannelTarget はチャンネルの対象ノードとパス。
type AnimationChannelTarget struct {
	Node *int   `json:"node"`
	Path string `json:"path"`
}

// AnimationSampler はglTF animation.samplers要素。
type AnimationSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation"`
}

// CanLoadBinary はGLBコンテナとして読む拡張子かを返す。
func CanLoadBinary(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".vrm":
		return true
	}
	return false
}

// ReadFile はGLB(.glb/.vrm)またはglTF JSON(.gltf)を読み込む。
func ReadFile(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, io_common.NewIoFileNotFound(path, err)
		}
		return nil, io_common.NewIoParseFailed("ファイルの読み取りに失敗しました", err)
	}
	if CanLoadBinary(path) {
		return ParseGLB(b)
	}
	if strings.EqualFold(filepath.Ext(path), ".gltf") {
		return ParseGLTF(b, filepath.Dir(path))
	}
	return nil, io_common.NewIoExtInvalid(path, nil)
}

// ParseGLB はGLBバイナリを解析する。
func ParseGLB(b []byte) (*Document, error) {
	jsonChunk, binChunk, err := ParseGLBChunks(b)
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	if err := json.Unmarshal(jsonChunk, doc); err != nil {
		return nil, io_common.NewIoParseFailed("glTF JSONチャンクの解析に失敗しました", err)
	}
	doc.binChunks = make([][]byte, len(doc.Buffers))
	if len(doc.Buffers) > 0 && doc.Buffers[0].URI == "" {
		doc.binChunks[0] = binChunk
	}
	return doc, nil
}

// ParseGLTF はglTF JSONを解析する。外部バッファは baseDir 相対で読む。
func ParseGLTF(b []byte, baseDir string) (*Document, error) {
	doc := &Document{}
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, io_common.NewIoParseFailed("glTF JSONの解析に失敗しました", err)
	}
	doc.binChunks = make([][]byte, len(doc.Buffers))
	for i, buffer := range doc.Buffers {
		data, err := loadBufferURI(buffer.URI, baseDir)
		if err != nil {
			return nil, err
		}
		doc.binChunks[i] = data
	}
	return doc, nil
}

// loadBufferURI はdata URIまたは相対パスのバッファを読む。
func loadBufferURI(uri string, baseDir string) ([]byte, error) {
	if uri == "" {
		return nil, nil
	}
	if strings.HasPrefix(uri, dataURIPrefix) {
		idx := strings.Index(uri, base64Marker)
		if idx < 0 {
			return nil, io_common.NewIoFormatNotSupported("base64以外のdata URIは未対応です", nil)
		}
		data, err := base64.StdEncoding.DecodeString(uri[idx+len(base64Marker):])
		if err != nil {
			return nil, io_common.NewIoParseFailed("data URIのデコードに失敗しました", err)
		}
		return data, nil
	}
	path := filepath.Join(baseDir, filepath.FromSlash(uri))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, io_common.NewIoFileNotFound(path, err)
		}
		return nil, io_common.NewIoParseFailed("外部バッファの読み取りに失敗しました", err)
	}
	return data, nil
}

// ParseGLBChunks はGLBバイナリからJSONチャンクとBINチャンクを取り出す。
func ParseGLBChunks(b []byte) ([]byte, []byte, error) {
	if len(b) < glbMinValidLength {
		return nil, nil, io_common.NewIoParseFailed("GLBヘッダが不足しています", nil)
	}
	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != glbMagic {
		return nil, nil, io_common.NewIoParseFailed("GLBマジックが不正です", nil)
	}
	version := binary.LittleEndian.Uint32(b[4:8])
	if version != 2 {
		return nil, nil, io_common.NewIoFormatNotSupported("GLBバージョンが未対応です: %d", nil, version)
	}
	totalLength := binary.LittleEndian.Uint32(b[8:12])
	if totalLength > uint32(len(b)) {
		return nil, nil, io_common.NewIoParseFailed("GLB全体長が不正です", nil)
	}

	var jsonChunk []byte
	var binChunk []byte
	offset := glbHeaderLength
	for offset+glbChunkHeadSize <= len(b) {
		chunkLength := int(binary.LittleEndian.Uint32(b[offset : offset+4]))
		chunkType := binary.LittleEndian.Uint32(b[offset+4 : offset+8])
		chunkStart := offset + glbChunkHeadSize
		chunkEnd := chunkStart + chunkLength
		if chunkLength < 0 || chunkEnd > len(b) {
			return nil, nil, io_common.NewIoParseFailed("GLBチャンク長が不正です", nil)
		}
		switch chunkType {
		case glbJSONChunkType:
			if jsonChunk == nil {
				jsonChunk = b[chunkStart:chunkEnd]
			}
		case glbBINChunkType:
			if binChunk == nil {
				binChunk = b[chunkStart:chunkEnd]
			}
		}
		offset = chunkEnd
	}
	if jsonChunk == nil {
		return nil, nil, io_common.NewIoParseFailed("GLB JSONチャンクが見つかりません", nil)
	}
	return jsonChunk, binChunk, nil
}

// BuildNodeParentIndexes はnode配列から親インデックス配列を生成する。
func BuildNodeParentIndexes(nodes []Node) ([]int, error) {
	parentIndexes := make([]int, len(nodes))
	for i := range parentIndexes {
		parentIndexes[i] = -1
	}
	for parentIndex, node := range nodes {
		for _, childIndex := range node.Children {
			if childIndex < 0 || childIndex >= len(nodes) {
				return nil, io_common.NewIoParseFailed("node.children のindexが不正です: %d", nil, childIndex)
			}
			if parentIndexes[childIndex] == -1 {
				parentIndexes[childIndex] = parentIndex
			}
		}
	}
	if err := checkNodeCycles(parentIndexes); err != nil {
		return nil, err
	}
	return parentIndexes, nil
}

// checkNodeCycles は親を遡って循環が無いことを確認する。
func checkNodeCycles(parents []int) error {
	state := make([]int, len(parents))
	for start := range parents {
		current := start
		path := []int{}
		for current >= 0 && state[current] == 0 {
			state[current] = 1
			path = append(path, current)
			current = parents[current]
		}
		if current >= 0 && state[current] == 1 {
			return io_common.NewIoParseFailed("node親子関係に循環があります: %d", nil, current)
		}
		for _, idx := range path {
			state[idx] = 2
		}
	}
	return nil
}
