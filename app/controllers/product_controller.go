package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

// multipart overhead allowed on top of the image itself
const uploadSlack = 1 << 20

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

// Index handles GET /products?category=.
func (c *ProductController) Index(cx *ctx.Context) {
	products, err := c.products.List(cx.Context(), cx.Query("category"))
	if err != nil {
		cx.Fail(err, "Error fetching products")
		return
	}
	cx.OK(products)
}

// Show handles GET /products/{id}.
func (c *ProductController) Show(cx *ctx.Context) {
	p, err := c.products.Get(cx.Context(), cx.Param("id"))
	if err != nil {
		cx.Fail(err, "Error fetching product")
		return
	}
	cx.OK(p)
}

// Store handles POST /products.
func (c *ProductController) Store(cx *ctx.Context) {
	var in services.ProductInput
	if err := cx.Bind(&in); err != nil {
		cx.Fail(err, "Error creating product")
		return
	}

	p, err := c.products.Create(cx.Context(), in)
	if err != nil {
		cx.Fail(err, "Error creating product")
		return
	}
	cx.Created(p)
}

// Update handles PUT and PATCH /products/{id}.
func (c *ProductController) Update(cx *ctx.Context) {
	var in services.ProductInput
	if err := cx.Bind(&in); err != nil {
		cx.Fail(err, "Error updating product")
		return
	}

	p, err := c.products.Update(cx.Context(), cx.Param("id"), in)
	if err != nil {
		cx.Fail(err, "Error updating product")
		return
	}
	cx.OK(p)
}

// Destroy handles DELETE /products/{id}.
func (c *ProductController) Destroy(cx *ctx.Context) {
	if err := c.products.Delete(cx.Context(), cx.Param("id")); err != nil {
		cx.Fail(err, "Error deleting product")
		return
	}
	cx.Message(http.StatusOK, "Product deleted successfully")
}

// UploadImage handles POST /products/{id}/images with a multipart "image"
// field.
func (c *ProductController) UploadImage(cx *ctx.Context) {
	cx.R.Body = http.MaxBytesReader(cx.W, cx.R.Body, services.MaxImageBytes+uploadSlack)
	if err := cx.R.ParseMultipartForm(services.MaxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			cx.Fail(apperr.Validation("Image must be at most 5 MB"), "Error uploading image")
			return
		}
		cx.Fail(apperr.Validation("Image file is required"), "Error uploading image")
		return
	}
	defer cx.R.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := cx.R.FormFile("image")
	if err != nil {
		cx.Fail(apperr.Validation("Image file is required"), "Error uploading image")
		return
	}
	defer file.Close()

	p, err := c.products.AddImage(cx.Context(), cx.Param("id"), services.ImageUpload{
		Body:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		cx.Fail(err, "Error uploading image")
		return
	}
	cx.OK(p)
}
