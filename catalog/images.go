package catalog

import "fmt"

// ImagePairCount is the number of picture pairs shipped with the image variant.
const ImagePairCount = 8

// Images returns the picture variant: img-N.svg pairs with img-N-paar.svg.
func Images() *Catalog {
	pairs := make([][2]string, 0, ImagePairCount)
	for i := 1; i <= ImagePairCount; i++ {
		pairs = append(pairs, [2]string{
			fmt.Sprintf("img-%d.svg", i),
			fmt.Sprintf("img-%d-paar.svg", i),
		})
	}
	c, err := NewCatalog("image", pairs, func(face string) string {
		return "Images/" + face
	})
	if err != nil {
		panic(err)
	}
	return c
}
