package presentations

import (
	"time"

	"github.com/princekumarofficial/zcreens-service/internal/services/slides"
	"github.com/princekumarofficial/zcreens-service/internal/types"
)

type seedSlide struct {
	title, subtitle, color string
}

// DemoCatalog is the fixed set of presentations that keeps a fresh install
// demoable. Each one expires 24 hours after its fixed creation time.
func DemoCatalog() []types.Presentation {
	return []types.Presentation{
		demo("demo-q4-sales", "ABC123", "Q4 Sales Report.pdf",
			time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), 5000,
			seedSlide{"Title Page", "Q4 Sales Report", "#1e40af"},
			seedSlide{"Sales Overview", "Revenue by region", "#1073aa"},
			seedSlide{"Quarterly Results", "75% of target reached", "#197a3e"},
			seedSlide{"Thank You", "Questions?", "#333333"},
		),
		demo("demo-product", "DEMO", "Product Demo Presentation.pdf",
			time.Date(2024, 1, 16, 14, 20, 0, 0, time.UTC), 8000,
			seedSlide{"Product Demo Title", "2024 Innovation Showcase", "#1e40af"},
			seedSlide{"Feature Highlights", "What is new this year", "#0f70ff"},
		),
	}
}

func demo(id, code, fileName string, createdAt time.Time, intervalMS int, pages ...seedSlide) types.Presentation {
	out := types.Presentation{
		ID:              id,
		ScreenCode:      code,
		FileName:        fileName,
		FileType:        slides.MimePDF,
		TotalSlides:     len(pages),
		SlideIntervalMS: intervalMS,
		CreatedAt:       createdAt,
		ExpiresAt:       createdAt.Add(DefaultRetention),
	}
	for i, pg := range pages {
		out.Slides = append(out.Slides, types.Slide{
			PageNumber: i + 1,
			Image:      slides.TitleCard(pg.title, pg.subtitle, pg.color),
			Width:      types.DefaultSlideWidth,
			Height:     types.DefaultSlideHeight,
			Title:      pg.title,
		})
	}
	return out
}
