package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/newsportal/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML(), html.WithUnsafe()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

const (
	listPerPage  = 12
	sidebarLimit = 5
)

// ShowHome renders the public landing page with optional search.
func (a *API) ShowHome(c *gin.Context) {
	a.showArticleIndex(c, "welcome")
}

// ShowDashboard renders the signed-in landing page.
func (a *API) ShowDashboard(c *gin.Context) {
	a.showArticleIndex(c, "dashboard")
}

func (a *API) showArticleIndex(c *gin.Context, component string) {
	search := strings.TrimSpace(c.Query("search"))
	page := parsePositiveInt(c.DefaultQuery("page", "1"), 1)

	categories, err := a.categories.List()
	if err != nil {
		handleServiceError(c, err, "Failed to load categories")
		return
	}

	result, err := a.articles.List(service.ArticleFilter{
		Search:  search,
		Page:    page,
		PerPage: listPerPage,
	})
	if err != nil {
		handleServiceError(c, err, "Failed to load articles")
		return
	}

	a.renderPage(c, http.StatusOK, component, gin.H{
		"categories": categories,
		"news":       articlePayloads(result.Articles),
		"search":     search,
		"pagination": paginationPayload(result),
	})
}

// ShowArticle renders an article and counts the first view of each browsing session.
func (a *API) ShowArticle(c *gin.Context) {
	article, err := a.articles.GetBySlug(c.Param("slug"))
	if err != nil {
		handleServiceError(c, err, "Failed to load article")
		return
	}

	first, markErr := a.views.FirstView(c, article.ID)
	if markErr != nil {
		c.Error(markErr) // 不中断渲染，但记录错误
	} else if first {
		if count, incErr := a.articles.IncrementViews(article.ID); incErr == nil {
			article.ViewCount = count
		} else {
			c.Error(incErr)
			// 计数失败时撤销标记，下次浏览重新计数
			if relErr := a.views.Release(c, article.ID); relErr != nil {
				c.Error(relErr)
			}
		}
	}

	comments, err := a.comments.ListByArticle(article.ID)
	if err != nil {
		handleServiceError(c, err, "Failed to load comments")
		return
	}

	popular, err := a.articles.Popular(article.ID, sidebarLimit)
	if err != nil {
		handleServiceError(c, err, "Failed to load popular news")
		return
	}

	related, err := a.articles.Related(article, sidebarLimit)
	if err != nil {
		handleServiceError(c, err, "Failed to load related news")
		return
	}

	categories, err := a.categories.List()
	if err != nil {
		handleServiceError(c, err, "Failed to load categories")
		return
	}

	liked, err := a.likes.IsLiked(article.ID, a.currentUserID(c))
	if err != nil {
		c.Error(err)
	}

	news := articlePayload(article)
	news["content_html"] = renderMarkdown(article.Content)

	a.renderPage(c, http.StatusOK, "newspage", gin.H{
		"news":        news,
		"liked":       liked,
		"comments":    a.commentPayloads(comments),
		"popularNews": articlePayloads(popular),
		"relatedNews": articlePayloads(related),
		"categories":  categories,
	})
}

// ListCategories renders all categories.
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		handleServiceError(c, err, "Failed to load categories")
		return
	}

	a.renderPage(c, http.StatusOK, "categories", gin.H{
		"categories": categories,
	})
}

// ShowCategory renders articles of one category with optional search.
func (a *API) ShowCategory(c *gin.Context) {
	category, err := a.categories.GetBySlug(c.Param("slug"))
	if err != nil {
		handleServiceError(c, err, "Failed to load category")
		return
	}

	search := strings.TrimSpace(c.Query("search"))
	page := parsePositiveInt(c.DefaultQuery("page", "1"), 1)

	result, err := a.articles.List(service.ArticleFilter{
		Search:   search,
		Category: category.Name,
		Page:     page,
		PerPage:  listPerPage,
	})
	if err != nil {
		handleServiceError(c, err, "Failed to load articles")
		return
	}

	popular, err := a.articles.Popular(0, sidebarLimit)
	if err != nil {
		handleServiceError(c, err, "Failed to load popular news")
		return
	}

	related, err := a.articles.List(service.ArticleFilter{Category: category.Name, PerPage: sidebarLimit})
	if err != nil {
		handleServiceError(c, err, "Failed to load related news")
		return
	}

	categories, err := a.categories.List()
	if err != nil {
		handleServiceError(c, err, "Failed to load categories")
		return
	}

	a.renderPage(c, http.StatusOK, "categories", gin.H{
		"categories":  categories,
		"category":    category,
		"articles":    articlePayloads(result.Articles),
		"search":      search,
		"pagination":  paginationPayload(result),
		"popularNews": articlePayloads(popular),
		"relatedNews": articlePayloads(related.Articles),
	})
}

func paginationPayload(result *service.ArticleListResult) gin.H {
	return gin.H{
		"page":        result.Page,
		"per_page":    result.PerPage,
		"total":       result.Total,
		"total_pages": result.TotalPages,
		"has_more":    result.Page < result.TotalPages,
	}
}

// renderMarkdown 把文章正文渲染为经过清洗的 HTML。
func renderMarkdown(content string) template.HTML {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}
