package scraper

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/maltedev/whey-ranker/internal/browser"
	"github.com/maltedev/whey-ranker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchStatic(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

func (m *mockFetcher) FetchRendered(ctx context.Context, url string, interactions ...browser.Interaction) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

func (m *mockFetcher) FetchVariants(ctx context.Context, url string, query browser.VariantQuery) ([]browser.Variant, error) {
	args := m.Called(ctx, url)
	variants, _ := args.Get(0).([]browser.Variant)
	return variants, args.Error(1)
}

func (m *mockFetcher) Close() error {
	return nil
}

const katerelosHTML = `<html><body>
<div class="block_btm"><h4>Nutrabolics Whey 2,27 kg</h4><h6><span>54,90€</span></h6></div>
<div class="block_btm"><h4> Gold Whey 908g ΠΡΩΤΕΪΝΗ </h4><h6><strong>29,90€</strong><span>34,90€</span></h6></div>
<div class="block_btm"><h4>Missing price</h4></div>
<div class="block_btm"><h6><span>1€</span></h6></div>
</body></html>`

const fitraceHTML = `<html><body>
<div class="item"><div class="description"><h4>Whey 100 2 kg ΠΡΩΤΕΪΝΗ</h4></div><div class="price"><span>49,90 €</span></div></div>
<div class="item"><div class="description"><h4>Iso 900g</h4></div><div class="price"><strong>35,00 €</strong><span>40,00 €</span></div></div>
<div class="item"><div class="description"><p>no heading</p></div><div class="price"><span>1,00 €</span></div></div>
</body></html>`

const growlingHTML = `<html><body><ul>
<li><h3 class="heading-title product-name"><a href="/p1">Whey Protein 1kg</a></h3><span class="price">29,90 €</span></li>
<li><h3 class="heading-title product-name">No link</h3><span class="price">10,00 €</span></li>
<li><h3 class="heading-title product-name"><a href="/p3">Iso Whey 2kg</a></h3></li>
</ul></body></html>`

const fit1HTML = `<html><body>
<div class="product">
  <div class="brand-line">Optimum Nutrition</div>
  <a href="/on"><h3 title="Gold Standard 100% Whey">Gold Standard</h3></a>
  <div class="pack-line">2.27kg</div>
  <div class="price-line"><b class="green">59<sup>90</sup>€</b></div>
</div>
<div class="product">
  <div class="brand-line">Applied</div>
  <h3 title="ISO-XP">ISO-XP</h3>
  <div class="pack-line">1.8 κιλά</div>
  <div class="price-line"><b class="normalp">64,<sup>90</sup> €</b></div>
</div>
<div class="product">
  <div class="brand-line">Bare</div>
  <h3 title="No Price">No Price</h3>
  <div class="pack-line">1kg</div>
  <div class="price-line"><i>call us</i></div>
</div>
</body></html>`

const gymBeamHTML = `<html><body>
<div class="product details product-item-details"><a class="product-item-link" href="/true-whey"> True Whey </a></div>
<div class="product details product-item-details"><a class="product-item-link" href="https://gymbeam.gr/just-whey">Just Whey</a></div>
<div class="product details product-item-details"><span>no link</span></div>
</body></html>`

func TestKaterelosExtract(t *testing.T) {
	a := NewKaterelos(nil, slog.Default())
	url := a.URLs()[0]

	got := a.Extract(katerelosHTML, url)
	assert.Equal(t, []models.RawProduct{
		{Name: "Nutrabolics Whey 2,27 kg", Price: "54,90€", SourceURL: url},
		{Name: "Gold Whey 908g", Price: "29,90€", SourceURL: url},
	}, got)
	assert.False(t, a.Plan().Rendered)
	assert.Len(t, a.URLs(), 5)
}

func TestFitraceExtract(t *testing.T) {
	a := NewFitrace([]string{"https://fitrace.test/list"}, slog.Default())

	got := a.Extract(fitraceHTML, "https://fitrace.test/list")
	assert.Equal(t, []models.RawProduct{
		{Name: "Whey 100 2 kg", Price: "49,90 €", SourceURL: "https://fitrace.test/list"},
		{Name: "Iso 900g", Price: "35,00 €", SourceURL: "https://fitrace.test/list"},
	}, got)
	assert.Equal(t, []string{"https://fitrace.test/list"}, a.URLs())
}

func TestGrowlingExtract(t *testing.T) {
	a := NewGrowling(nil, slog.Default())

	got := a.Extract(growlingHTML, "https://growlingstore.gr/product-category/proteines/")
	require.Len(t, got, 1)
	assert.Equal(t, "Whey Protein 1kg", got[0].Name)
	assert.Equal(t, "29,90 €", got[0].Price)

	plan := a.Plan()
	assert.True(t, plan.Rendered)
	require.Len(t, plan.Interactions, 1)
	assert.Equal(t, browser.ClickUntilGone{Selector: ".load-more"}, plan.Interactions[0])
}

func TestFit1Extract(t *testing.T) {
	a := NewFit1(nil, slog.Default())

	got := a.Extract(fit1HTML, "https://fit1.gr/category/whey-protein")
	assert.Equal(t, []models.RawProduct{
		{Name: "Optimum Nutrition Gold Standard 100% Whey 2.27kg", Price: "59,90", SourceURL: "https://fit1.gr/category/whey-protein"},
		{Name: "Applied ISO-XP 1.8 κιλά", Price: "64,90", SourceURL: "https://fit1.gr/category/whey-protein"},
	}, got)
}

func TestFit1Price(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
		ok   bool
	}{
		{"sup cents", `<div class="price-line"><b class="green">24<sup>90</sup>€</b></div>`, "24,90", true},
		{"cents repeat whole part", `<div class="price-line"><b class="green">90<sup>90</sup>€</b></div>`, "90,90", true},
		{"no sup", `<div class="price-line"><b class="normalp">19,90 €</b></div>`, "19,90", true},
		{"sale preferred", `<div class="price-line"><b class="normalp">30<sup>00</sup></b><b class="green">25<sup>50</sup></b></div>`, "25,50", true},
		{"missing", `<div class="price-line"><span>-</span></div>`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parse(tt.html)
			require.NoError(t, err)
			got, ok := fit1Price(doc.Find("div.price-line"))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGymBeamExtract(t *testing.T) {
	a := NewGymBeam(nil, slog.Default())

	got := a.Extract(gymBeamHTML, "https://gymbeam.gr/proteini-orou-galaktos")
	assert.Equal(t, []models.RawProduct{
		{Name: "True Whey", SourceURL: "https://gymbeam.gr/true-whey"},
		{Name: "Just Whey", SourceURL: "https://gymbeam.gr/just-whey"},
	}, got)
}

func TestGymBeamExpand(t *testing.T) {
	a := NewGymBeam(nil, slog.Default())
	f := new(mockFetcher)
	ctx := context.Background()

	f.On("FetchVariants", mock.Anything, "https://gymbeam.gr/true-whey").Return([]browser.Variant{
		{Option: "1000 g", Price: " 24,90 € "},
		{Option: "2500 g", Price: "54,90 €"},
	}, nil)

	got, err := a.Expand(ctx, f, models.RawProduct{Name: "True Whey", SourceURL: "https://gymbeam.gr/true-whey"})
	require.NoError(t, err)
	assert.Equal(t, []models.RawProduct{
		{Name: "True Whey - 1000 g", Price: "24,90 €", SourceURL: "https://gymbeam.gr/true-whey"},
		{Name: "True Whey - 2500 g", Price: "54,90 €", SourceURL: "https://gymbeam.gr/true-whey"},
	}, got)
	f.AssertExpectations(t)
}

func TestGymBeamExpandFailure(t *testing.T) {
	a := NewGymBeam(nil, slog.Default())
	f := new(mockFetcher)

	f.On("FetchVariants", mock.Anything, "https://gymbeam.gr/gone").Return(nil, errors.New("navigation timeout"))

	got, err := a.Expand(context.Background(), f, models.RawProduct{Name: "Gone", SourceURL: "https://gymbeam.gr/gone"})
	assert.Error(t, err)
	assert.Empty(t, got)
}

func TestAdaptersOrder(t *testing.T) {
	adapters := Adapters(map[string][]string{SourceFit1: {"https://fit1.test"}}, slog.Default())

	var names []string
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{SourceKaterelos, SourceFitrace, SourceGrowling, SourceFit1, SourceGymBeam}, names)
	assert.Equal(t, []string{"https://fit1.test"}, adapters[3].URLs())

	_, expands := adapters[4].(VariantExpander)
	assert.True(t, expands)
}

func TestFollowing(t *testing.T) {
	doc, err := parse(`<div class="c"><p class="t">inside</p></div><div class="c"></div><div class="c"></div><p class="t">after</p>`)
	require.NoError(t, err)

	got := following(doc, "div.c", "p.t")
	require.Len(t, got, 3)
	assert.Equal(t, "inside", got[0].Text())
	// containers without their own target share the next one
	assert.Equal(t, "after", got[1].Text())
	assert.Equal(t, "after", got[2].Text())
}
