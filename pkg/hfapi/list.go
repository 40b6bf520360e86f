package hfapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wzshiming/hfapi/pkg/filters"
	"github.com/wzshiming/hfapi/pkg/repoid"
	"github.com/wzshiming/hfapi/pkg/search"
)

// ListModelsOptions narrows and shapes a model listing.
type ListModelsOptions struct {
	// Filter restricts results to models matching facet tags.
	Filter *filters.Filter
	// Author restricts results to one user or organization. When a
	// Filter carries an author this field is ignored.
	Author string
	// Search is a free-text query over model names.
	Search string
	// Sort names the metadata field to order by.
	Sort string
	// Descending reverses the sort order.
	Descending bool
	// Limit caps the number of results. Zero means no cap.
	Limit int
	// Full requests extended metadata including siblings.
	Full bool
	// CardData requests the model card metadata, needed for
	// emissions filtering.
	CardData bool
	// FetchConfig requests the model config.
	FetchConfig bool
	// Emissions keeps only models whose card reports CO2 emissions
	// within the threshold, applied after the hub query.
	Emissions *filters.EmissionsThreshold
}

func (o *ListModelsOptions) query() (url.Values, error) {
	query := url.Values{}
	author := o.Author
	searchText := o.Search
	if o.Filter != nil {
		if o.Filter.Kind() != filters.KindModel {
			return nil, fmt.Errorf("model listing requires a model filter, got %s", o.Filter.Kind())
		}
		if o.Filter.Author() != "" {
			author = o.Filter.Author()
		}
		if o.Filter.Name() != "" {
			searchText = o.Filter.Name()
		}
		for _, tag := range o.Filter.Tags() {
			query.Add("filter", tag)
		}
	}
	if author != "" {
		query.Set("author", author)
	}
	if searchText != "" {
		query.Set("search", searchText)
	}
	if o.Sort != "" {
		query.Set("sort", o.Sort)
	}
	if o.Descending {
		query.Set("direction", "-1")
	}
	if o.Limit > 0 {
		query.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Full {
		query.Set("full", "true")
	}
	if o.CardData || o.Emissions != nil {
		query.Set("cardData", "true")
	}
	if o.FetchConfig {
		query.Set("config", "true")
	}
	return query, nil
}

// ListModels queries the hub for models. With nil options it returns
// the unfiltered listing.
func (c *Client) ListModels(ctx context.Context, opts *ListModelsOptions) ([]*ModelInfo, error) {
	if opts == nil {
		opts = &ListModelsOptions{}
	}
	query, err := opts.query()
	if err != nil {
		return nil, err
	}
	var models []*ModelInfo
	if err := c.do(ctx, http.MethodGet, "/api/models", query, nil, &models); err != nil {
		return nil, err
	}
	if opts.Emissions != nil {
		models = FilterByEmissions(models, *opts.Emissions)
	}
	return models, nil
}

// ListDatasetsOptions narrows and shapes a dataset listing.
type ListDatasetsOptions struct {
	Filter     *filters.Filter
	Author     string
	Search     string
	Sort       string
	Descending bool
	Limit      int
	Full       bool
	CardData   bool
}

func (o *ListDatasetsOptions) query() (url.Values, error) {
	query := url.Values{}
	author := o.Author
	searchText := o.Search
	if o.Filter != nil {
		if o.Filter.Kind() != filters.KindDataset {
			return nil, fmt.Errorf("dataset listing requires a dataset filter, got %s", o.Filter.Kind())
		}
		if o.Filter.Author() != "" {
			author = o.Filter.Author()
		}
		if o.Filter.Name() != "" {
			searchText = o.Filter.Name()
		}
		for _, tag := range o.Filter.Tags() {
			query.Add("filter", tag)
		}
	}
	if author != "" {
		query.Set("author", author)
	}
	if searchText != "" {
		query.Set("search", searchText)
	}
	if o.Sort != "" {
		query.Set("sort", o.Sort)
	}
	if o.Descending {
		query.Set("direction", "-1")
	}
	if o.Limit > 0 {
		query.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Full {
		query.Set("full", "true")
	}
	if o.CardData {
		query.Set("cardData", "true")
	}
	return query, nil
}

// ListDatasets queries the hub for datasets.
func (c *Client) ListDatasets(ctx context.Context, opts *ListDatasetsOptions) ([]*DatasetInfo, error) {
	if opts == nil {
		opts = &ListDatasetsOptions{}
	}
	query, err := opts.query()
	if err != nil {
		return nil, err
	}
	var datasets []*DatasetInfo
	if err := c.do(ctx, http.MethodGet, "/api/datasets", query, nil, &datasets); err != nil {
		return nil, err
	}
	return datasets, nil
}

// ListMetrics returns the metrics known to the hub.
func (c *Client) ListMetrics(ctx context.Context) ([]*MetricInfo, error) {
	var metrics []*MetricInfo
	if err := c.do(ctx, http.MethodGet, "/api/metrics", nil, nil, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// ModelInfoOptions controls a single-model metadata fetch.
type ModelInfoOptions struct {
	// Revision pins the metadata to a branch, tag or commit.
	Revision string
	// SecurityStatus requests scan results alongside the metadata.
	SecurityStatus bool
}

// ModelInfo fetches the metadata of one model, optionally at a
// revision.
func (c *Client) ModelInfo(ctx context.Context, repo string, opts *ModelInfoOptions) (*ModelInfo, error) {
	if opts == nil {
		opts = &ModelInfoOptions{}
	}
	path := "/api/models/" + repo
	if opts.Revision != "" {
		path += "/revision/" + opts.Revision
	}
	var query url.Values
	if opts.SecurityStatus {
		query = url.Values{"securityStatus": []string{"true"}}
	}
	var info ModelInfo
	if err := c.do(ctx, http.MethodGet, path, query, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DatasetInfo fetches the metadata of one dataset, optionally at a
// revision.
func (c *Client) DatasetInfo(ctx context.Context, repo string, revision string) (*DatasetInfo, error) {
	path := "/api/datasets/" + repo
	if revision != "" {
		path += "/revision/" + revision
	}
	var info DatasetInfo
	if err := c.do(ctx, http.MethodGet, path, url.Values{"full": []string{"true"}}, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListRepoFiles returns the paths of all files in a repository.
func (c *Client) ListRepoFiles(ctx context.Context, repo string, repoType repoid.RepoType, revision string) ([]string, error) {
	switch repoType {
	case repoid.RepoTypeModel:
		info, err := c.ModelInfo(ctx, repo, &ModelInfoOptions{Revision: revision})
		if err != nil {
			return nil, err
		}
		return siblingNames(info.Siblings), nil
	case repoid.RepoTypeDataset:
		info, err := c.DatasetInfo(ctx, repo, revision)
		if err != nil {
			return nil, err
		}
		return siblingNames(info.Siblings), nil
	default:
		return nil, fmt.Errorf("invalid repo type %q", repoType)
	}
}

func siblingNames(siblings []Sibling) []string {
	names := make([]string, 0, len(siblings))
	for _, sibling := range siblings {
		names = append(names, sibling.RFilename)
	}
	return names
}

// ModelTags fetches the model tag vocabulary as a search namespace.
func (c *Client) ModelTags(ctx context.Context) (*search.Arguments, error) {
	var vocab map[string][]search.Tag
	if err := c.do(ctx, http.MethodGet, "/api/models-tags-by-type", nil, nil, &vocab); err != nil {
		return nil, err
	}
	return search.New(vocab), nil
}

// DatasetTags fetches the dataset tag vocabulary as a search namespace.
func (c *Client) DatasetTags(ctx context.Context) (*search.Arguments, error) {
	var vocab map[string][]search.Tag
	if err := c.do(ctx, http.MethodGet, "/api/datasets-tags-by-type", nil, nil, &vocab); err != nil {
		return nil, err
	}
	return search.New(vocab), nil
}

// DownloadURL is the resolve URL of a file at a revision. Revision
// defaults to main.
func (c *Client) DownloadURL(repo string, repoType repoid.RepoType, revision, filename string) string {
	if revision == "" {
		revision = "main"
	}
	return fmt.Sprintf("%s/%s%s/resolve/%s/%s", c.endpoint, repoid.ResolvePrefix(repoType), repo, revision, filename)
}

// Tree lists the entries of a repository tree at a revision.
func (c *Client) Tree(ctx context.Context, repo string, repoType repoid.RepoType, revision, path string, recursive bool) ([]TreeEntry, error) {
	if revision == "" {
		revision = "main"
	}
	target := fmt.Sprintf("/api/%s/%s/tree/%s", repoid.APIPrefix(repoType), repo, revision)
	if path != "" {
		target += "/" + path
	}
	var query url.Values
	if recursive {
		query = url.Values{"recursive": []string{"true"}}
	}
	var entries []TreeEntry
	if err := c.do(ctx, http.MethodGet, target, query, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
