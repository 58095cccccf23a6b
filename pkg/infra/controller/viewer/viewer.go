// 指示: miu200521358
// Package viewer はセッションをebitenのウィンドウへ描画する。
package viewer

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/miu200521358/mu_vrm_retarget/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_vrm_retarget/pkg/usecase/minteractor"
)

const (
	// DefaultWidth と DefaultHeight は初期ウィンドウサイズ。
	DefaultWidth  = 1280
	DefaultHeight = 720
	// ticksPerSecond は更新頻度。再生の経過時間もこの値から求める。
	ticksPerSecond = 60
)

var (
	backgroundColor = color.RGBA{R: 0x20, G: 0x22, B: 0x28, A: 0xff}
	floorColor      = color.RGBA{R: 0x50, G: 0x55, B: 0x60, A: 0xff}
	boneColor       = color.RGBA{R: 0x7f, G: 0xd4, B: 0xff, A: 0xff}
)

// Viewer は ebiten.Game を実装する表示ループ。
type Viewer struct {
	loop   *minteractor.FrameLoop
	width  int
	height int
}

// NewViewer はビューアを生成する。
func NewViewer(loop *minteractor.FrameLoop) *Viewer {
	return &Viewer{loop: loop, width: DefaultWidth, height: DefaultHeight}
}

// Run はウィンドウを開き、閉じるまでブロックする。
func (v *Viewer) Run(title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(v.width, v.height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(ticksPerSecond)
	return ebiten.RunGame(v)
}

// Update は受信済みの読込結果と顔フレームを反映して1ティック進める。
func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		v.loop.Session().ClearError()
	}
	v.loop.Tick(1.0 / float64(ebiten.TPS()))
	return nil
}

// Draw は床・ボーン・状態表示を描画する。
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	session := v.loop.Session()
	width := float64(v.width)
	height := float64(v.height)

	for _, segment := range session.FloorSegments(width, height) {
		strokeSegment(screen, segment, 1, floorColor)
	}
	for _, segment := range session.BoneSegments(width, height) {
		strokeSegment(screen, segment, 3, boneColor)
	}
	ebitenutil.DebugPrint(screen, strings.Join(statusLines(session, ebiten.ActualFPS(), v.loop.Pending()), "\n"))
}

// Layout はウィンドウサイズをそのまま論理サイズとして使う。
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth > 0 && outsideHeight > 0 && (outsideWidth != v.width || outsideHeight != v.height) {
		v.width = outsideWidth
		v.height = outsideHeight
		v.loop.Session().SetViewport(float64(outsideWidth), float64(outsideHeight))
	}
	return v.width, v.height
}

func strokeSegment(screen *ebiten.Image, segment minteractor.Segment, width float32, clr color.Color) {
	vector.StrokeLine(
		screen,
		float32(segment.X0), float32(segment.Y0),
		float32(segment.X1), float32(segment.Y1),
		width, clr, true,
	)
}

// statusLines は画面左上に表示する状態を組み立てる。
func statusLines(session *minteractor.Session, fps float64, loading bool) []string {
	blink := session.Blink()
	gaze := session.Gaze()
	lines := []string{
		fmt.Sprintf("%s: %.1f", messages.LabelFps, fps),
		fmt.Sprintf("%s: L=%.2f R=%.2f", messages.LabelBlink, blink.Left, blink.Right),
		fmt.Sprintf("%s: (%.2f, %.2f, %.2f)", messages.LabelGaze, gaze.X, gaze.Y, gaze.Z),
	}
	if applied := session.AppliedExpressions(); len(applied) > 0 {
		parts := make([]string, 0, len(applied))
		for _, expression := range applied {
			parts = append(parts, fmt.Sprintf("%s=%.2f", expression.Name, expression.Weight))
		}
		lines = append(lines, fmt.Sprintf("%s: %s", messages.LabelExpression, strings.Join(parts, " ")))
	}
	if player := session.Player(); player != nil && player.Clip() != nil {
		clip := player.Clip()
		lines = append(lines, fmt.Sprintf(
			"%s: %s  %s: %.2f/%.2f",
			messages.LabelClip, clip.Name, messages.LabelTime, player.Time(), clip.Duration,
		))
	}
	if loading {
		lines = append(lines, "...")
	}
	if banner := messages.Banner(session.LastError()); banner != "" {
		lines = append(lines, "", banner)
	}
	return lines
}
