package directory

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/allanpk716/docx_mailmerge/internal/config"
	"github.com/allanpk716/docx_mailmerge/internal/domain"
	"github.com/allanpk716/docx_mailmerge/internal/recipient"
	"github.com/allanpk716/docx_mailmerge/pkg/logger"
)

// Client 目录网站客户端：搜索人员并解析个人页面
// 网络错误、超时、非 2xx 都按"没有找到"处理，不返回错误
type Client struct {
	http      *resty.Client
	baseURL   string
	base      *url.URL
	cfg       config.DirectoryConfig
	selectors config.SelectorConfig
}

var _ domain.DirectoryClient = (*Client)(nil)

// NewClient 创建目录客户端，整批查询复用同一个 HTTP 连接池
func NewClient(cfg config.DirectoryConfig) (*Client, error) {
	base, err := parseAbsURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	baseURL := strings.TrimRight(base.String(), "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetHeader("Accept-Language", "ru-RU,ru;q=0.9")
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{
		http:      httpClient,
		baseURL:   baseURL,
		base:      base,
		cfg:       cfg,
		selectors: cfg.Selectors,
	}, nil
}

// Search 搜索人员，返回最相关的个人页面链接
// 优先选择带有 "Кто есть кто" 标签的结果，其次是第一个 /person/ 链接
func (c *Client) Search(ctx context.Context, query string) (domain.SearchResult, error) {
	query = recipient.Normalize(query)
	if query == "" {
		return domain.SearchResult{}, nil
	}

	log := logger.FromContext(ctx)
	doc, err := c.get(ctx, c.cfg.SearchPath, map[string]string{c.cfg.QueryParam: query})
	if err != nil {
		log.Debug("目录搜索失败", "query", query, "error", err)
		return domain.SearchResult{}, nil
	}

	href := c.pickResult(doc)
	if href == "" {
		log.Debug("目录中没有找到", "query", query)
		return domain.SearchResult{}, nil
	}
	return domain.SearchResult{URL: c.resolve(href)}, nil
}

// pickResult 在结果容器中选择链接
func (c *Client) pickResult(doc *html.Node) string {
	container := findFirst(doc, func(n *html.Node) bool {
		id, _ := attr(n, "id")
		return isTag(n, "div") && id == c.selectors.ContainerID
	})
	if container == nil {
		return ""
	}

	links := findAll(container, func(n *html.Node) bool {
		_, ok := attr(n, "href")
		return isTag(n, "a") && ok
	})

	for _, link := range links {
		tag := findFirst(link, func(n *html.Node) bool {
			return isTag(n, "div") && hasClasses(n, c.selectors.TagClass)
		})
		if tag != nil && strings.Contains(text(tag), c.selectors.TagMarker) {
			href, _ := attr(link, "href")
			return href
		}
	}

	for _, link := range links {
		if href, _ := attr(link, "href"); strings.Contains(href, c.selectors.ProfileMarker) {
			return href
		}
	}

	return ""
}

// resolve 相对链接按站点地址解析，绝对链接原样返回
func (c *Client) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return c.base.ResolveReference(ref).String()
}

// FetchDetails 解析个人页面中的 e-mail 和出生日期，两者都可能为空
func (c *Client) FetchDetails(ctx context.Context, rawURL string) (domain.LookupOutcome, error) {
	if _, err := parseAbsURL(rawURL); err != nil {
		return domain.LookupOutcome{}, err
	}

	doc, err := c.get(ctx, rawURL, nil)
	if err != nil {
		logger.FromContext(ctx).Debug("读取个人页面失败", "url", rawURL, "error", err)
		return domain.LookupOutcome{}, nil
	}

	return domain.LookupOutcome{
		Email:       c.extractEmail(doc),
		DateOfBirth: c.extractDateOfBirth(doc),
	}, nil
}

// label 查找文本包含 marker 的字段标签
func (c *Client) label(doc *html.Node, marker string) *html.Node {
	return findFirst(doc, func(n *html.Node) bool {
		return isTag(n, "span") && hasClasses(n, c.selectors.LabelClass) && strings.Contains(text(n), marker)
	})
}

func (c *Client) extractDateOfBirth(doc *html.Node) string {
	span := c.label(doc, c.selectors.DOBMarker)
	if span == nil || span.Parent == nil {
		return ""
	}
	value := strings.ReplaceAll(text(span.Parent), c.selectors.DOBMarker+":", "")
	return strings.TrimSpace(value)
}

func (c *Client) extractEmail(doc *html.Node) string {
	span := c.label(doc, c.selectors.EmailMarker)
	if span == nil || span.Parent == nil {
		return ""
	}
	block := span.Parent

	var email string
	mailto := findFirst(block, func(n *html.Node) bool {
		href, ok := attr(n, "href")
		return isTag(n, "a") && ok && strings.Contains(href, "mailto:")
	})
	if mailto != nil {
		href, _ := attr(mailto, "href")
		email = strings.TrimSpace(strings.ReplaceAll(href, "mailto:", ""))
		email, _, _ = strings.Cut(email, "?")
	} else {
		email = recipient.EmailPattern.FindString(text(block))
	}

	email = recipient.Normalize(email)
	if !recipient.IsEmailLike(email) {
		return ""
	}
	return email
}

// get 请求页面并解析 HTML，按响应头或页面声明解码字符集
func (c *Client) get(ctx context.Context, path string, query map[string]string) (*html.Node, error) {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("HTTP 状态 %d", resp.StatusCode())
	}

	body, err := charset.NewReader(bytes.NewReader(resp.Body()), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("识别字符集失败: %w", err)
	}
	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("解析 HTML 失败: %w", err)
	}
	return doc, nil
}

func parseAbsURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidURL, raw)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidURL, raw)
	}
	return u, nil
}
