package enums

// GarmentFamily groups products that share a print area layout.
type GarmentFamily string

const (
	GarmentShirt   GarmentFamily = "shirt"
	GarmentHoodie  GarmentFamily = "hoodie"
	GarmentMug     GarmentFamily = "mug"
	GarmentDefault GarmentFamily = "default"
)
