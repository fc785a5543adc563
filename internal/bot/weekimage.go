package bot

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/avoroshilov/lessonbook/internal/model"
)

const (
	imageWidth      = 1400
	imageHeight     = 900
	headerHeight    = 80
	leftLabelsWidth = 70
	dayPaddingX     = 6.0
	slotCornerR     = 6.0
	totalDays       = 7
	defaultMinHour  = 8
	defaultMaxHour  = 21
)

var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	gridColor      = color.RGBA{215, 218, 222, 255}
	textBlack      = color.RGBA{80, 85, 90, 255}
	hourLabelGray  = color.RGBA{110, 115, 120, 255}
	slotFillColor  = color.RGBA{120, 170, 255, 255}
	slotGroupColor = color.RGBA{140, 210, 160, 255}
	slotTextColor  = color.RGBA{30, 40, 55, 255}
)

var weekdayNames = [totalDays]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// RenderWeek draws a Monday-to-Sunday grid of the given slots as a PNG.
// The hour axis is clamped to the busy range, padded by one hour each side.
func RenderWeek(weekStart time.Time, slots []*model.Slot) ([]byte, error) {
	minHour, maxHour := hourBounds(slots)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := float64(imageWidth-leftLabelsWidth) / totalDays
	hourHeight := float64(imageHeight-headerHeight) / float64(maxHour-minHour+1)

	// Day headers.
	dc.SetColor(textBlack)
	for day := 0; day < totalDays; day++ {
		date := weekStart.AddDate(0, 0, day)
		label := fmt.Sprintf("%s %s", weekdayNames[day], date.Format("02.01"))
		x := float64(leftLabelsWidth) + dayWidth*float64(day) + dayWidth/2
		dc.DrawStringAnchored(label, x, headerHeight/2, 0.5, 0.5)
	}

	// Hour labels and horizontal grid lines.
	for hour := minHour; hour <= maxHour+1; hour++ {
		y := float64(headerHeight) + hourHeight*float64(hour-minHour)
		dc.SetColor(gridColor)
		dc.DrawLine(leftLabelsWidth, y, imageWidth, y)
		dc.Stroke()
		if hour <= maxHour {
			dc.SetColor(hourLabelGray)
			dc.DrawStringAnchored(fmt.Sprintf("%02d:00", hour), leftLabelsWidth/2, y+hourHeight/2, 0.5, 0.5)
		}
	}

	// Vertical day separators.
	dc.SetColor(gridColor)
	for day := 0; day <= totalDays; day++ {
		x := float64(leftLabelsWidth) + dayWidth*float64(day)
		dc.DrawLine(x, headerHeight, x, imageHeight)
		dc.Stroke()
	}

	// Slots.
	for _, slot := range slots {
		day := dayIndex(weekStart, slot.StartTime)
		if day < 0 || day >= totalDays {
			continue
		}

		startH := float64(slot.StartTime.Hour()) + float64(slot.StartTime.Minute())/60
		endH := float64(slot.EndTime.Hour()) + float64(slot.EndTime.Minute())/60
		if slot.EndTime.Day() != slot.StartTime.Day() {
			endH = float64(maxHour + 1)
		}

		x := float64(leftLabelsWidth) + dayWidth*float64(day) + dayPaddingX
		y := float64(headerHeight) + hourHeight*(startH-float64(minHour))
		h := hourHeight * (endH - startH)
		w := dayWidth - 2*dayPaddingX

		fill := slotFillColor
		if slot.LessonType == model.LessonGroup {
			fill = slotGroupColor
		}
		dc.SetColor(fill)
		dc.DrawRoundedRectangle(x, y, w, h, slotCornerR)
		dc.Fill()

		dc.SetColor(slotTextColor)
		label := fmt.Sprintf("%s-%s", slot.StartTime.Format("15:04"), slot.EndTime.Format("15:04"))
		dc.DrawStringAnchored(label, x+w/2, y+h/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode week image: %w", err)
	}

	return buf.Bytes(), nil
}

func hourBounds(slots []*model.Slot) (int, int) {
	minHour, maxHour := defaultMinHour, defaultMaxHour
	for _, slot := range slots {
		if h := slot.StartTime.Hour(); h < minHour {
			minHour = h
		}
		if h := slot.EndTime.Hour(); h > maxHour {
			maxHour = h
		}
	}
	if minHour > 0 {
		minHour--
	}
	if maxHour < 23 {
		maxHour++
	}
	return minHour, maxHour
}

func dayIndex(weekStart, t time.Time) int {
	return int(t.Sub(weekStart).Hours() / 24)
}
