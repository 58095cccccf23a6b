// 指示: miu200521358
// Package testglb はテスト用GLBファイルの書き出しを提供する。
package testglb

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"testing"
)

// Write はテスト用のJSON/BINをGLBとして書き込む。binChunk が空ならBINチャンクを省略する。
func Write(t testing.TB, path string, doc map[string]any, binChunk []byte) {
	t.Helper()
	if err := os.WriteFile(path, Encode(t, doc, binChunk), 0o644); err != nil {
		t.Fatalf("write file failed: %v", err)
	}
}

// Encode はテスト用のJSON/BINをGLBバイト列へ変換する。
func Encode(t testing.TB, doc map[string]any, binChunk []byte) []byte {
	t.Helper()
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}
	jsonPadSize := (4 - (len(jsonBytes) % 4)) % 4
	if jsonPadSize > 0 {
		jsonBytes = append(jsonBytes, bytes.Repeat([]byte(" "), jsonPadSize)...)
	}
	binBytes := append([]byte(nil), binChunk...)
	if len(binBytes) > 0 {
		binPadSize := (4 - (len(binBytes) % 4)) % 4
		if binPadSize > 0 {
			binBytes = append(binBytes, bytes.Repeat([]byte{0x00}, binPadSize)...)
		}
	}

	totalLength := uint32(12 + 8 + len(jsonBytes))
	if len(binBytes) > 0 {
		totalLength += uint32(8 + len(binBytes))
	}
	var buf bytes.Buffer
	write := func(label string, v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("write %s failed: %v", label, err)
		}
	}
	write("magic", uint32(0x46546C67))
	write("version", uint32(2))
	write("length", totalLength)
	write("json chunk length", uint32(len(jsonBytes)))
	write("json chunk type", uint32(0x4E4F534A))
	buf.Write(jsonBytes)
	if len(binBytes) > 0 {
		write("bin chunk length", uint32(len(binBytes)))
		write("bin chunk type", uint32(0x004E4942))
		buf.Write(binBytes)
	}
	return buf.Bytes()
}

// Float32Bytes はfloat32列をリトルエンディアンのバイト列へ変換する。
func Float32Bytes(values ...float32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}
