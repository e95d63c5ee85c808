package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	// AvatarMaxBytes 限制头像文件大小为 2 MiB。
	AvatarMaxBytes = 2 << 20
	// AvatarMaxDimension 超过该边长的头像会被等比缩小。
	AvatarMaxDimension = 512

	avatarDir = "avatars"
)

var allowedAvatarExts = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
}

// AvatarStorage 抽象头像文件的持久化位置。
type AvatarStorage interface {
	Save(r io.Reader, ext string) (string, error)
	Delete(storedPath string) error
}

// AvatarUpload 是一次头像上传的原始内容。
type AvatarUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// LocalAvatarStore 把头像保存在本地上传目录下的 avatars/ 子目录。
type LocalAvatarStore struct {
	root    string
	urlPath string
}

// NewLocalAvatarStore creates a store rooted at uploadDir and served under urlPath.
func NewLocalAvatarStore(uploadDir, urlPath string) *LocalAvatarStore {
	return &LocalAvatarStore{
		root:    uploadDir,
		urlPath: "/" + strings.Trim(urlPath, "/"),
	}
}

// Save 生成唯一文件名并写入磁盘，返回相对于上传目录的存储路径。
func (s *LocalAvatarStore) Save(r io.Reader, ext string) (string, error) {
	dir := filepath.Join(s.root, avatarDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create avatar dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), strings.ToLower(ext))
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("write avatar file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close avatar file: %w", err)
	}

	return path.Join(avatarDir, name), nil
}

// Delete 删除已存储的头像，文件不存在时视为成功。
func (s *LocalAvatarStore) Delete(storedPath string) error {
	cleaned := s.localPath(storedPath)
	if cleaned == "" {
		return nil
	}
	if err := os.Remove(cleaned); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete avatar: %w", err)
	}
	return nil
}

// URL 返回存储路径对应的公开访问地址。
func (s *LocalAvatarStore) URL(storedPath string) string {
	storedPath = strings.TrimSpace(storedPath)
	if storedPath == "" {
		return ""
	}
	if strings.HasPrefix(storedPath, "http://") || strings.HasPrefix(storedPath, "https://") {
		return storedPath
	}
	return path.Join(s.urlPath, strings.TrimPrefix(storedPath, "/"))
}

func (s *LocalAvatarStore) localPath(storedPath string) string {
	trimmed := strings.TrimSpace(storedPath)
	trimmed = strings.TrimPrefix(trimmed, s.urlPath+"/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return ""
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return ""
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned))
}

// preparedAvatar 是通过校验、必要时已缩放的头像数据。
type preparedAvatar struct {
	data []byte
	ext  string
}

// prepareAvatar 校验扩展名、大小与图片内容，过大的图片等比缩小到 AvatarMaxDimension。
func prepareAvatar(upload *AvatarUpload) (*preparedAvatar, string) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	format, ok := allowedAvatarExts[ext]
	if !ok {
		return nil, "The avatar field must be a file of type: jpg, jpeg, png."
	}
	if upload.Size > AvatarMaxBytes {
		return nil, "The avatar field must not be greater than 2048 kilobytes."
	}

	raw, err := io.ReadAll(io.LimitReader(upload.Content, AvatarMaxBytes+1))
	if err != nil {
		return nil, "The avatar failed to upload."
	}
	if len(raw) > AvatarMaxBytes {
		return nil, "The avatar field must not be greater than 2048 kilobytes."
	}

	img, decodedFormat, err := image.Decode(bytes.NewReader(raw))
	if err != nil || decodedFormat != format {
		return nil, "The avatar field must be an image."
	}

	bounds := img.Bounds()
	if bounds.Dx() <= AvatarMaxDimension && bounds.Dy() <= AvatarMaxDimension {
		return &preparedAvatar{data: raw, ext: ext}, ""
	}

	scaled, err := downscale(img, format)
	if err != nil {
		return nil, "The avatar failed to upload."
	}
	return &preparedAvatar{data: scaled, ext: ext}, ""
}

func downscale(img image.Image, format string) ([]byte, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width >= height {
		height = max(1, height*AvatarMaxDimension/width)
		width = AvatarMaxDimension
	} else {
		width = max(1, width*AvatarMaxDimension/height)
		height = AvatarMaxDimension
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	var err error
	if format == "png" {
		err = png.Encode(&buf, dst)
	} else {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
