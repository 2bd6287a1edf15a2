// Package video 爱看机器人影视源，抓取网页生成猫影视格式的数据
package video

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/chengxue2020/Cat-ports/logger"
)

const (
	DefaultBaseURL = "https://www.ikanbot.com"
	MobileUA       = "Mozilla/5.0 (iPhone; CPU iPhone OS 13_2_3 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/13.0.3 Mobile/15E148 Safari/604.1"

	pageSize     = 24
	playlistSep  = "$$$"
	maxPageBytes = 4 << 20
)

var homeCategories = []string{"/hot/index-movie-热门.html", "/hot/index-tv-热门.html"}

// Ikanbot 影视源客户端
type Ikanbot struct {
	baseURL string
	client  *http.Client
}

// NewIkanbot 创建客户端，baseURL 为空时使用默认站点
func NewIkanbot(baseURL string, timeout time.Duration) *Ikanbot {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Ikanbot{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Home 分类和标签筛选
func (k *Ikanbot) Home(ctx context.Context) (*HomeResult, error) {
	result := &HomeResult{
		Class:   make([]Class, 0, len(homeCategories)),
		Filters: make(map[string][]Filter, len(homeCategories)),
	}
	for _, cate := range homeCategories {
		doc, err := k.document(ctx, k.baseURL+cate)
		if err != nil {
			return nil, err
		}
		cls, filter, err := parseClass(doc)
		if err != nil {
			return nil, fmt.Errorf("解析分类 %s 失败: %w", cate, err)
		}
		result.Class = append(result.Class, cls)
		result.Filters[cls.TypeID] = []Filter{filter}
	}
	return result, nil
}

func parseClass(doc *goquery.Document) (Class, Filter, error) {
	filter := Filter{Key: "tag", Name: "标签"}
	doc.Find("ul.nav-pills").Eq(1).ChildrenFiltered("li").ChildrenFiltered("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		filter.Value = append(filter.Value, FilterValue{N: strings.TrimSpace(a.Text()), V: href})
	})
	if len(filter.Value) == 0 {
		return Class{}, Filter{}, fmt.Errorf("没有找到标签")
	}
	filter.Init = filter.Value[0].V

	title := doc.Find("title").First().Text()
	name := []rune(strings.SplitN(title, "-", 2)[0])
	if len(name) > 2 {
		name = name[2:]
	} else {
		name = nil
	}

	return Class{TypeID: filter.Init, TypeName: string(name)}, filter, nil
}

// Category 分类列表，tag 不为空时优先于 tid
func (k *Ikanbot) Category(ctx context.Context, tid string, page int, tag string) (*ListResult, error) {
	if page <= 0 {
		page = 1
	}
	path := tid
	if tag != "" {
		path = tag
	}
	suffix := ".html"
	if page > 1 {
		suffix = fmt.Sprintf("-p-%d.html", page)
	}
	path = strings.Replace(path, ".html", suffix, 1)

	doc, err := k.document(ctx, k.baseURL+path)
	if err != nil {
		return nil, err
	}

	list := make([]Vod, 0, pageSize)
	doc.Find("div.v-list a.item").Each(func(_ int, item *goquery.Selection) {
		img := item.Find("img").First()
		href, _ := item.Attr("href")
		list = append(list, Vod{
			VodID:   href,
			VodName: img.AttrOr("alt", ""),
			VodPic:  k.picture(img.AttrOr("data-src", "")),
		})
	})

	pageCount := page
	if hasMore(doc) {
		pageCount = page + 1
	}
	return &ListResult{
		Page:      page,
		PageCount: pageCount,
		Limit:     pageSize,
		Total:     pageSize * pageCount,
		List:      list,
	}, nil
}

// Search 关键词搜索
func (k *Ikanbot) Search(ctx context.Context, keyword string, page int) (*ListResult, error) {
	if page <= 0 {
		page = 1
	}
	doc, err := k.document(ctx, k.baseURL+"/search?q="+url.QueryEscape(keyword)+"&p="+strconv.Itoa(page))
	if err != nil {
		return nil, err
	}

	list := make([]Vod, 0)
	doc.Find("div.media").Each(func(_ int, item *goquery.Selection) {
		img := item.Find("img").First()
		list = append(list, Vod{
			VodID:      item.Find("a").First().AttrOr("href", ""),
			VodName:    img.AttrOr("alt", ""),
			VodPic:     k.picture(img.AttrOr("data-src", "")),
			VodRemarks: strings.TrimSpace(item.Find("span.label").First().Text()),
		})
	})

	pageCount := page
	if hasMore(doc) {
		pageCount = page + 1
	}
	return &ListResult{Page: page, PageCount: pageCount, List: list}, nil
}

// Detail 影片详情和播放列表
func (k *Ikanbot) Detail(ctx context.Context, id string) (*ListResult, error) {
	doc, err := k.document(ctx, k.baseURL+id)
	if err != nil {
		return nil, err
	}

	vod := Vod{
		VodID:  id,
		VodPic: k.picture(doc.Find("div.item-root > img").First().AttrOr("data-src", "")),
	}
	doc.Find("div.detail > .meta").Each(func(_ int, meta *goquery.Selection) {
		text := strings.TrimSpace(meta.Contents().First().Text())
		switch {
		case meta.HasClass("title"):
			vod.VodName = text
		case meta.HasClass("year"):
			vod.VodYear = text
		case meta.HasClass("country"):
			vod.VodArea = text
		case meta.HasClass("celebrity"):
			vod.VodActor = text
		}
	})

	videoID := id[strings.LastIndex(id, "/")+1:]
	body, err := k.fetch(ctx, k.baseURL+"/api/getResN?videoId="+url.QueryEscape(videoID)+"&mtype=2")
	if err != nil {
		return nil, err
	}
	vod.VodPlayFrom, vod.VodPlayURL = parsePlaylist(body)

	return &ListResult{List: []Vod{vod}}, nil
}

// parsePlaylist 合并各资源的线路，同名线路只保留第一次出现的
func parsePlaylist(body []byte) (from, urls string) {
	var flags, links []string
	seen := make(map[string]bool)

	gjson.GetBytes(body, "data.list").ForEach(func(_, item gjson.Result) bool {
		gjson.Parse(item.Get("resData").String()).ForEach(func(_, res gjson.Result) bool {
			flag := res.Get("flag").String()
			link := res.Get("url").String()
			if flag == "" || link == "" || seen[flag] {
				return true
			}
			seen[flag] = true
			flags = append(flags, flag)
			links = append(links, link)
			return true
		})
		return true
	})

	return strings.Join(flags, playlistSep), strings.Join(links, playlistSep)
}

// Play 播放地址就是线路里的直链
func (k *Ikanbot) Play(flag, id string) *PlayResult {
	return &PlayResult{Parse: 0, URL: id}
}

// Proxy 处理形如 img/<base64 地址> 的代理路径，图片以自身地址作为 Referer 拉取
// 其他类型返回 500 空内容
func (k *Ikanbot) Proxy(ctx context.Context, path string) (*ProxyResult, error) {
	what, encoded, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if what != "img" {
		return &ProxyResult{Code: http.StatusInternalServerError}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("代理地址解码失败: %w", err)
	}
	target := string(raw)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", MobileUA)
	req.Header.Set("Referer", target)

	resp, err := k.client.Do(req)
	if err != nil {
		logger.Warn("[Ikanbot] 图片代理失败", logger.String("url", target), logger.ErrorField(err))
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return &ProxyResult{
		Code:        resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Content:     body,
	}, nil
}

func hasMore(doc *goquery.Document) bool {
	more := doc.Find("div.page-more > a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return strings.Contains(a.Text(), "下一页")
	})
	return more.Length() > 0
}

func (k *Ikanbot) picture(src string) string {
	return src + "@Referer=" + k.baseURL + "@User-Agent=" + MobileUA
}

func (k *Ikanbot) document(ctx context.Context, target string) (*goquery.Document, error) {
	body, err := k.fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("解析页面失败: %w", err)
	}
	return doc, nil
}

func (k *Ikanbot) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", MobileUA)
	req.Header.Set("Referer", k.baseURL)

	start := time.Now()
	resp, err := k.client.Do(req)
	if err != nil {
		logger.Warn("[Ikanbot] 请求失败", logger.String("url", target), logger.ErrorField(err))
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("站点返回状态码 %d", resp.StatusCode)
	}

	logger.Debug("[Ikanbot] 请求完成",
		logger.String("url", target),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)))
	return body, nil
}
