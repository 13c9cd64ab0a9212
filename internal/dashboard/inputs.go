package dashboard

import "strings"

// ---------------------------------------------------------------------------
// Input contracts
// ---------------------------------------------------------------------------

// Every mutation body decodes into one of these and passes through its
// validate method before anything touches the store. A nil fieldErrors means
// the input is acceptable.

type fieldErrors map[string]string

func (fe fieldErrors) add(field, msg string) fieldErrors {
	if fe == nil {
		fe = fieldErrors{}
	}
	fe[field] = msg
	return fe
}

type StoreInput struct {
	Name string `json:"name"`
}

func (in StoreInput) validate() fieldErrors {
	var fe fieldErrors
	if strings.TrimSpace(in.Name) == "" {
		fe = fe.add("name", "Name is required")
	}
	return fe
}

type BillboardInput struct {
	Label    string `json:"label"`
	ImageURL string `json:"imageUrl"`
}

func (in BillboardInput) validate() fieldErrors {
	var fe fieldErrors
	if strings.TrimSpace(in.Label) == "" {
		fe = fe.add("label", "Label is required")
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		fe = fe.add("imageUrl", "Image is required")
	}
	return fe
}

type CategoryInput struct {
	Name        string `json:"name"`
	BillboardID string `json:"billboardId"`
}

func (in CategoryInput) validate() fieldErrors {
	var fe fieldErrors
	if strings.TrimSpace(in.Name) == "" {
		fe = fe.add("name", "Name is required")
	}
	if strings.TrimSpace(in.BillboardID) == "" {
		fe = fe.add("billboardId", "Billboard is required")
	}
	return fe
}

type SizeInput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (in SizeInput) validate() fieldErrors {
	var fe fieldErrors
	if strings.TrimSpace(in.Name) == "" {
		fe = fe.add("name", "Name is required")
	}
	if strings.TrimSpace(in.Value) == "" {
		fe = fe.add("value", "Value is required")
	}
	return fe
}

type ColorInput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (in ColorInput) validate() fieldErrors {
	var fe fieldErrors
	if strings.TrimSpace(in.Name) == "" {
		fe = fe.add("name", "Name is required")
	}
	// Hex color string: leading # and at least #rgb.
	if len(in.Value) < 4 {
		fe = fe.add("value", "Value is required")
	} else if !strings.HasPrefix(in.Value, "#") {
		fe = fe.add("value", "Value must be in hex code")
	}
	return fe
}

type ImageInput struct {
	URL string `json:"url"`
}

type ProductInput struct {
	Name       string       `json:"name"`
	Images     []ImageInput `json:"images"`
	Price      float64      `json:"price"`
	CategoryID string       `json:"categoryId"`
	ColorID    string       `json:"colorId"`
	SizeID     string       `json:"sizeId"`
	IsFeatured bool         `json:"isFeatured"`
	IsArchived bool         `json:"isArchived"`
}

func (in ProductInput) validate() fieldErrors {
	var fe fieldErrors
	if strings.TrimSpace(in.Name) == "" {
		fe = fe.add("name", "Name is required")
	}
	if in.Price <= 0 {
		fe = fe.add("price", "Price is required")
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		fe = fe.add("categoryId", "Category is required")
	}
	if strings.TrimSpace(in.ColorID) == "" {
		fe = fe.add("colorId", "Color is required")
	}
	if strings.TrimSpace(in.SizeID) == "" {
		fe = fe.add("sizeId", "Size is required")
	}
	return fe
}
