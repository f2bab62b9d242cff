package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"

	"buildtrack/models"
	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

// siteTagPayload is what a site scanner reads back from the code.
type siteTagPayload struct {
	PhaseID   string             `json:"phaseId"`
	ProjectID string             `json:"projectId"`
	Phase     models.PhaseType   `json:"phase"`
	Floor     int                `json:"floor"`
	Status    models.PhaseStatus `json:"status"`
}

func drawText(img *image.RGBA, x, y int, text string, face font.Face, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// renderSiteTag draws the phase QR code with a caption block below it.
func renderSiteTag(projectName string, p *models.ConstructionPhase) ([]byte, error) {
	payload, err := json.Marshal(siteTagPayload{
		PhaseID:   p.ID,
		ProjectID: p.ProjectID,
		Phase:     p.Phase,
		Floor:     p.Floor,
		Status:    p.Status,
	})
	if err != nil {
		return nil, err
	}
	qr, err := qrcode.New(string(payload), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	qrImg := qr.Image(384)
	size := qrImg.Bounds().Dx()

	const (
		padding    = 24
		lineHeight = 26
		lines      = 4
	)
	tag := image.NewRGBA(image.Rect(0, 0, size, size+padding+lines*lineHeight+padding))
	draw.Draw(tag, tag.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(tag, image.Rect(0, 0, size, size), qrImg, image.Point{}, draw.Src)

	sep := size + padding/2
	for x := 0; x < size; x++ {
		tag.Set(x, sep, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	}

	rows := [lines][2]string{
		{"Project:", truncate(projectName, 26)},
		{"Phase:", string(p.Phase)},
		{"Floor:", fmt.Sprintf("%d", p.Floor)},
		{"Progress:", services.FormatFixed2(p.Progress) + "%"},
	}
	label := color.RGBA{R: 30, G: 30, B: 30, A: 255}
	y := size + padding + lineHeight
	for _, row := range rows {
		drawText(tag, 16, y, row[0], inconsolata.Bold8x16, label)
		drawText(tag, 112, y, row[1], inconsolata.Regular8x16, color.Black)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, tag, nil); err != nil {
		return nil, fmt.Errorf("encode site tag: %w", err)
	}
	return buf.Bytes(), nil
}

// PhaseSiteTag godoc
// @Summary      Phase site tag
// @Description  JPEG with a QR code identifying the phase, for printing on site
// @Tags         phases
// @Produce      image/jpeg
// @Security     BearerAuth
// @Param        phaseId  path  string  true  "Phase ID"
// @Success      200      {file}    file  "JPEG image"
// @Failure      404      {object}  models.ErrorResponse
// @Router       /api/phases/{phaseId}/qr [get]
func PhaseSiteTag(phases *services.PhaseService, projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		phase, err := phases.Get(ctx, who, c.Param("phaseId"))
		if err != nil {
			respondError(c, err)
			return
		}
		project, err := projects.Get(ctx, who, phase.ProjectID)
		if err != nil {
			respondError(c, err)
			return
		}
		img, err := renderSiteTag(project.Name, phase)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/jpeg", img)
	}
}
