package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wowcafe/cafe-app/models"
	"github.com/wowcafe/cafe-app/utils"
)

// AttributeConfigController manages per-family attribute dictionaries. A
// family's config names its attributes (storage key -> display name) and
// flags which ones are required or editable.
type AttributeConfigController struct {
	DB *gorm.DB
}

func NewAttributeConfigController(db *gorm.DB) *AttributeConfigController {
	return &AttributeConfigController{DB: db}
}

// parseAttributeSpec validates one attribute entry of a config payload.
// name, type, label and required are mandatory; editable defaults to false.
func parseAttributeSpec(key string, raw interface{}) (models.AttributeSpec, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return models.AttributeSpec{}, utils.NewValidationError(
			fmt.Sprintf("%s must be an attribute object", key))
	}

	name, _ := m["name"].(string)
	typ, _ := m["type"].(string)
	label, _ := m["label"].(string)
	required, hasRequired := m["required"].(bool)
	if name == "" || typ == "" || label == "" || !hasRequired {
		return models.AttributeSpec{}, utils.NewValidationError(
			fmt.Sprintf("%s needs name, type, label and required", key))
	}

	spec := models.AttributeSpec{Name: name, Type: typ, Label: label, Required: required}
	spec.Editable, _ = m["editable"].(bool)
	return spec, nil
}

// addConfigs inserts a batch. A duplicate family (persisted or earlier in
// the batch) is collected as a per-entry error and skipped; a malformed
// attribute spec fails the whole batch.
func (ac *AttributeConfigController) addConfigs(entries []map[string]interface{}) ([]uint, []string, error) {
	ids := make([]uint, 0, len(entries))
	batchErrors := make([]string, 0)
	seen := make(map[string]bool)

	for _, entry := range entries {
		family, _ := entry["family"].(string)
		if family == "" {
			return nil, nil, utils.NewValidationError("family is required")
		}

		var count int64
		ac.DB.Model(&models.AttributeConfig{}).Where("family = ?", family).Count(&count)
		if count > 0 || seen[family] {
			batchErrors = append(batchErrors, fmt.Sprintf("family '%s' already exists", family))
			continue
		}

		attributes := make(map[string]models.AttributeSpec)
		for key, raw := range entry {
			if !models.IsAttributeKey(key) {
				continue
			}
			spec, err := parseAttributeSpec(key, raw)
			if err != nil {
				return nil, nil, err
			}
			attributes[key] = spec
		}

		cfg := models.AttributeConfig{Family: family, Attributes: attributes}
		if err := ac.DB.Create(&cfg).Error; err != nil {
			return nil, nil, err
		}
		seen[family] = true
		ids = append(ids, cfg.ID)
	}
	return ids, batchErrors, nil
}

func (ac *AttributeConfigController) configForFamily(family string) (*models.AttributeConfig, error) {
	var cfg models.AttributeConfig
	err := ac.DB.Where("family = ?", family).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// configView renders a config flat: attribute specs sit next to family
// under their storage keys, the shape the write payload uses.
func configView(cfg models.AttributeConfig) gin.H {
	view := gin.H{"id": cfg.ID, "family": cfg.Family}
	for key, spec := range cfg.Attributes {
		view[key] = spec
	}
	return view
}

// AddAttributeConfigs handles POST /attribute-configs — bulk add.
func (ac *AttributeConfigController) AddAttributeConfigs(c *gin.Context) {
	var entries []map[string]interface{}
	if err := c.ShouldBindJSON(&entries); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}
	if len(entries) == 0 {
		utils.RespondAppError(c, utils.NewValidationError("no configs supplied"))
		return
	}

	ids, batchErrors, err := ac.addConfigs(entries)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ids": ids, "errors": batchErrors})
}

// GetAttributeConfigs handles GET /attribute-configs
func (ac *AttributeConfigController) GetAttributeConfigs(c *gin.Context) {
	var configs []models.AttributeConfig
	if err := ac.DB.Find(&configs).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	views := make([]gin.H, 0, len(configs))
	for _, cfg := range configs {
		views = append(views, configView(cfg))
	}
	utils.RespondJSON(c, http.StatusOK, "Attribute configs", views)
}

// UpdateAttributeConfig handles PUT /attribute-configs/:config_id — merges
// the supplied attribute specs into the existing dictionary.
func (ac *AttributeConfigController) UpdateAttributeConfig(c *gin.Context) {
	configID, err := strconv.ParseUint(c.Param("config_id"), 10, 32)
	if err != nil {
		utils.RespondAppError(c, utils.NewValidationError("invalid config_id"))
		return
	}

	var cfg models.AttributeConfig
	if err := ac.DB.First(&cfg, uint(configID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondAppError(c, utils.NewNotFoundError(
				fmt.Sprintf("attribute config %d not found", configID)))
			return
		}
		utils.RespondAppError(c, err)
		return
	}

	var entry map[string]interface{}
	if err := c.ShouldBindJSON(&entry); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	if cfg.Attributes == nil {
		cfg.Attributes = make(map[string]models.AttributeSpec)
	}
	for key, raw := range entry {
		if !models.IsAttributeKey(key) {
			continue
		}
		spec, err := parseAttributeSpec(key, raw)
		if err != nil {
			utils.RespondAppError(c, err)
			return
		}
		cfg.Attributes[key] = spec
	}

	if err := ac.DB.Save(&cfg).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ProductController manages labeled products. Write payloads and responses
// use the family's display names; storage keys never leave the database
// layer.
type ProductController struct {
	DB      *gorm.DB
	Configs *AttributeConfigController
}

func NewProductController(db *gorm.DB, configs *AttributeConfigController) *ProductController {
	return &ProductController{DB: db, Configs: configs}
}

// displayToStorage rewrites payload keys to storage keys. Keys with no
// mapping pass through unchanged.
func displayToStorage(mapping map[string]string, data map[string]interface{}) map[string]interface{} {
	inverted := make(map[string]string, len(mapping))
	for storage, display := range mapping {
		inverted[display] = storage
	}
	converted := make(map[string]interface{}, len(data))
	for key, value := range data {
		if storage, ok := inverted[key]; ok {
			converted[storage] = value
		} else {
			converted[key] = value
		}
	}
	return converted
}

func fieldToStorage(mapping map[string]string, field string) string {
	for storage, display := range mapping {
		if display == field {
			return storage
		}
	}
	return field
}

// hasMissingAttributes reports whether any required attribute is absent.
func hasMissingAttributes(attributes map[string]interface{}, required []string) bool {
	for _, key := range required {
		if _, ok := attributes[key]; !ok {
			return true
		}
	}
	return false
}

// productView renders a product flat with attribute values under their
// display names. The missing flag is recomputed against the config, so a
// later config change shows up without a rewrite of every product row.
func productView(p models.Product, cfg *models.AttributeConfig) gin.H {
	mapping := map[string]string{}
	var required []string
	if cfg != nil {
		mapping = cfg.AttributeMapping()
		required = cfg.RequiredAttributes()
	}

	view := gin.H{
		"id":                 p.ID,
		"family":             p.Family,
		"article_id":         p.ArticleID,
		"missing_attributes": hasMissingAttributes(p.Attributes, required),
	}
	for key, value := range p.Attributes {
		name := key
		if display, ok := mapping[key]; ok && display != "" {
			name = display
		}
		view[name] = value
	}
	return view
}

// addProducts inserts a batch. Duplicate article ids (persisted or earlier
// in the batch) are collected as per-entry errors and skipped.
func (pc *ProductController) addProducts(entries []map[string]interface{}) ([]uint, []string, error) {
	ids := make([]uint, 0, len(entries))
	batchErrors := make([]string, 0)
	seen := make(map[string]bool)

	for _, entry := range entries {
		family, _ := entry["family"].(string)
		articleID, _ := entry["article_id"].(string)
		if family == "" || articleID == "" {
			return nil, nil, utils.NewValidationError("family and article_id are required")
		}

		var count int64
		pc.DB.Model(&models.Product{}).Where("article_id = ?", articleID).Count(&count)
		if count > 0 || seen[articleID] {
			batchErrors = append(batchErrors, fmt.Sprintf("article_id '%s' already exists", articleID))
			continue
		}

		cfg, err := pc.Configs.configForFamily(family)
		if err != nil {
			return nil, nil, err
		}
		mapping := map[string]string{}
		var required []string
		if cfg != nil {
			mapping = cfg.AttributeMapping()
			required = cfg.RequiredAttributes()
		}

		attributes := make(map[string]interface{})
		for key, value := range entry {
			if key == "family" || key == "article_id" {
				continue
			}
			attributes[key] = value
		}
		attributes = displayToStorage(mapping, attributes)

		product := models.Product{
			Family:            family,
			ArticleID:         articleID,
			Attributes:        attributes,
			MissingAttributes: hasMissingAttributes(attributes, required),
		}
		if err := pc.DB.Create(&product).Error; err != nil {
			return nil, nil, err
		}
		seen[articleID] = true
		ids = append(ids, product.ID)
	}
	return ids, batchErrors, nil
}

// queryProducts applies column filters in SQL and attribute filters (by
// storage key, compared as strings) in memory, since attribute values live
// in a JSON column.
func (pc *ProductController) queryProducts(filters map[string]string) ([]models.Product, error) {
	q := pc.DB.Model(&models.Product{})
	attrFilters := make(map[string]string)
	for key, value := range filters {
		switch key {
		case "family", "article_id":
			q = q.Where(fmt.Sprintf("%s = ?", key), value)
		case "missing_attributes":
			q = q.Where("missing_attributes = ?", value == "1" || value == "true")
		default:
			attrFilters[key] = value
		}
	}

	var products []models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	if len(attrFilters) == 0 {
		return products, nil
	}

	matched := make([]models.Product, 0, len(products))
	for _, p := range products {
		ok := true
		for key, want := range attrFilters {
			got, exists := p.Attributes[key]
			if !exists || fmt.Sprint(got) != want {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func queryFilters(c *gin.Context) map[string]string {
	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	return filters
}

// renderProducts resolves each product's family config once per call.
func (pc *ProductController) renderProducts(products []models.Product) ([]gin.H, error) {
	configs := make(map[string]*models.AttributeConfig)
	views := make([]gin.H, 0, len(products))
	for _, p := range products {
		cfg, ok := configs[p.Family]
		if !ok {
			var err error
			cfg, err = pc.Configs.configForFamily(p.Family)
			if err != nil {
				return nil, err
			}
			configs[p.Family] = cfg
		}
		views = append(views, productView(p, cfg))
	}
	return views, nil
}

// AddProducts handles POST /products — bulk add.
func (pc *ProductController) AddProducts(c *gin.Context) {
	var entries []map[string]interface{}
	if err := c.ShouldBindJSON(&entries); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}
	if len(entries) == 0 {
		utils.RespondAppError(c, utils.NewValidationError("no products supplied"))
		return
	}

	ids, batchErrors, err := pc.addProducts(entries)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ids": ids, "errors": batchErrors})
}

// GetProducts handles GET /products — query params filter on columns
// (family, article_id, missing_attributes) or attribute storage keys.
func (pc *ProductController) GetProducts(c *gin.Context) {
	products, err := pc.queryProducts(queryFilters(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	views, err := pc.renderProducts(products)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Products", views)
}

// UpdateProduct handles PUT /products/:product_id. The update carries
// display names. Changing an attribute that already has a value requires
// the editable flag; filling a required attribute that was never set is
// always allowed. Required attributes absent from both the product and the
// update are rejected.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		utils.RespondAppError(c, utils.NewValidationError("invalid product_id"))
		return
	}

	var product models.Product
	if err := pc.DB.First(&product, uint(productID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondAppError(c, utils.NewNotFoundError(
				fmt.Sprintf("product %d not found", productID)))
			return
		}
		utils.RespondAppError(c, err)
		return
	}

	var entry map[string]interface{}
	if err := c.ShouldBindJSON(&entry); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}
	if _, ok := entry["family"]; ok {
		utils.RespondAppError(c, utils.NewValidationError("family cannot be changed"))
		return
	}
	if _, ok := entry["article_id"]; ok {
		utils.RespondAppError(c, utils.NewValidationError("article_id cannot be changed"))
		return
	}

	cfg, err := pc.Configs.configForFamily(product.Family)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	mapping := map[string]string{}
	var required, editable []string
	if cfg != nil {
		mapping = cfg.AttributeMapping()
		required = cfg.RequiredAttributes()
		editable = cfg.EditableAttributes()
	}

	updates := displayToStorage(mapping, entry)

	editableSet := make(map[string]bool, len(editable))
	for _, key := range editable {
		editableSet[key] = true
	}
	for key := range updates {
		if _, hasValue := product.Attributes[key]; hasValue && !editableSet[key] {
			name := key
			if display, ok := mapping[key]; ok {
				name = display
			}
			utils.RespondAppError(c, utils.NewValidationError(
				fmt.Sprintf("attribute %q is not editable", name)))
			return
		}
	}

	var missing []string
	for _, key := range required {
		if _, onProduct := product.Attributes[key]; onProduct {
			continue
		}
		if _, inUpdate := updates[key]; !inUpdate {
			name := key
			if display, ok := mapping[key]; ok {
				name = display
			}
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		utils.RespondAppError(c, utils.NewValidationError(
			fmt.Sprintf("required attributes are missing: %v", missing)))
		return
	}

	if product.Attributes == nil {
		product.Attributes = make(map[string]interface{})
	}
	for key, value := range updates {
		product.Attributes[key] = value
	}
	product.MissingAttributes = hasMissingAttributes(product.Attributes, required)

	if err := pc.DB.Save(&product).Error; err != nil {
		utils.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// distinctValues collects the distinct values of a storage-keyed field
// across the given products. Column fields read from the struct, anything
// else from the attribute map.
func distinctValues(products []models.Product, field string) []interface{} {
	seen := make(map[string]bool)
	values := make([]interface{}, 0)
	for _, p := range products {
		var value interface{}
		switch field {
		case "family":
			value = p.Family
		case "article_id":
			value = p.ArticleID
		default:
			var ok bool
			value, ok = p.Attributes[field]
			if !ok {
				continue
			}
		}
		key := fmt.Sprint(value)
		if !seen[key] {
			seen[key] = true
			values = append(values, value)
		}
	}
	return values
}

// GetDistinct handles GET /products/distinct/:field with optional filters.
func (pc *ProductController) GetDistinct(c *gin.Context) {
	products, err := pc.queryProducts(queryFilters(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Distinct values",
		distinctValues(products, c.Param("field")))
}

// GetFamilyProducts handles GET /products/family/:family — filters use the
// family's display names.
func (pc *ProductController) GetFamilyProducts(c *gin.Context) {
	family := c.Param("family")
	cfg, err := pc.Configs.configForFamily(family)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	mapping := map[string]string{}
	if cfg != nil {
		mapping = cfg.AttributeMapping()
	}

	filters := make(map[string]string)
	for key, value := range queryFilters(c) {
		filters[fieldToStorage(mapping, key)] = value
	}
	filters["family"] = family

	products, err := pc.queryProducts(filters)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	views := make([]gin.H, 0, len(products))
	for _, p := range products {
		views = append(views, productView(p, cfg))
	}
	utils.RespondJSON(c, http.StatusOK, "Family products", views)
}

// GetFamilyDistinct handles GET /products/family/:family/:field — the field
// is a display name resolved through the family's config.
func (pc *ProductController) GetFamilyDistinct(c *gin.Context) {
	family := c.Param("family")
	cfg, err := pc.Configs.configForFamily(family)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	mapping := map[string]string{}
	if cfg != nil {
		mapping = cfg.AttributeMapping()
	}

	products, err := pc.queryProducts(map[string]string{"family": family})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Distinct values",
		distinctValues(products, fieldToStorage(mapping, c.Param("field"))))
}

// UploadCatalogFile handles POST /upload/:file_type — a JSON file carrying
// a product or config batch, same semantics as the JSON endpoints.
func (pc *ProductController) UploadCatalogFile(c *gin.Context) {
	fileType := c.Param("file_type")
	if fileType != "product" && fileType != "config" {
		utils.RespondAppError(c, utils.NewValidationError(
			fmt.Sprintf("invalid upload type %q", fileType)))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.RespondAppError(c, utils.NewValidationError("file is required"))
		return
	}
	if !strings.HasSuffix(header.Filename, ".json") {
		utils.RespondAppError(c, utils.NewValidationError("invalid file extension"))
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	defer file.Close()

	var entries []map[string]interface{}
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		utils.RespondAppError(c, utils.NewValidationError(err.Error()))
		return
	}

	var ids []uint
	var batchErrors []string
	if fileType == "product" {
		ids, batchErrors, err = pc.addProducts(entries)
	} else {
		ids, batchErrors, err = pc.Configs.addConfigs(entries)
	}
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ids": ids, "errors": batchErrors})
}
