package customize

import (
	"fmt"
	"strings"

	"github.com/impresiones-magicas/storefront/pkg/enums"
)

// PrintArea is the rectangle where artwork is meant to sit for a product
// family. All four fields are percentages of the product image's bounding box.
type PrintArea struct {
	Family enums.GarmentFamily `json:"family"`
	Top    float64             `json:"top"`
	Left   float64             `json:"left"`
	Width  float64             `json:"width"`
	Height float64             `json:"height"`
}

func (a PrintArea) validate() error {
	for name, v := range map[string]float64{
		"top": a.Top, "left": a.Left, "width": a.Width, "height": a.Height,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("print area %s: %s %.1f outside [0,100]", a.Family, name, v)
		}
	}
	if a.Left+a.Width > 100 {
		return fmt.Errorf("print area %s: left+width exceeds 100", a.Family)
	}
	if a.Top+a.Height > 100 {
		return fmt.Errorf("print area %s: top+height exceeds 100", a.Family)
	}
	return nil
}

var printAreas = mustPrintAreas([]PrintArea{
	{Family: enums.GarmentShirt, Top: 22, Left: 28, Width: 44, Height: 45},
	{Family: enums.GarmentHoodie, Top: 28, Left: 30, Width: 40, Height: 32},
	{Family: enums.GarmentMug, Top: 20, Left: 35, Width: 30, Height: 50},
	{Family: enums.GarmentDefault, Top: 15, Left: 20, Width: 60, Height: 60},
})

func mustPrintAreas(areas []PrintArea) map[enums.GarmentFamily]PrintArea {
	byFamily := make(map[enums.GarmentFamily]PrintArea, len(areas))
	for _, area := range areas {
		if err := area.validate(); err != nil {
			panic(err)
		}
		byFamily[area.Family] = area
	}
	if _, ok := byFamily[enums.GarmentDefault]; !ok {
		panic("print area table needs a default entry")
	}
	return byFamily
}

// LookupPrintArea resolves the print area for a product by substring match
// against its display name, falling back to the default family.
func LookupPrintArea(productName string) PrintArea {
	name := strings.ToLower(productName)
	for _, family := range []enums.GarmentFamily{enums.GarmentHoodie, enums.GarmentShirt, enums.GarmentMug} {
		if strings.Contains(name, string(family)) {
			return printAreas[family]
		}
	}
	return printAreas[enums.GarmentDefault]
}
