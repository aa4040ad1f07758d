package service_test

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notascan/internal/config"
	"notascan/internal/dedup"
	"notascan/internal/domain"
	"notascan/internal/extract"
	"notascan/internal/port"
	"notascan/internal/service"
	"notascan/mocks"
)

func testS3Config() config.S3Config {
	return config.S3Config{
		Region:        "us-east-1",
		Bucket:        "",
		MaxFileSizeMB: 10,
	}
}

// createMultipartFile creates a fake multipart file header and content for testing.
func createMultipartFile(filename string, content []byte, contentType string) (multipart.File, *multipart.FileHeader) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)

	part, _ := writer.CreatePart(h)
	_, _ = part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content) + 1024))
	file, _ := form.File["file"][0].Open()
	return file, form.File["file"][0]
}

// pngContent returns minimal valid PNG bytes (magic bytes).
func pngContent() []byte {
	header := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	return append(header, bytes.Repeat([]byte{0x00}, 100)...)
}

// jpegContent returns minimal valid JPEG bytes (magic bytes).
func jpegContent() []byte {
	header := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	return append(header, bytes.Repeat([]byte{0x00}, 100)...)
}

func contentHash(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

func newExtractionService(
	invoiceRepo *mocks.MockInvoiceRepo,
	promptRepo *mocks.MockPromptConfigRepo,
	vision *mocks.MockVisionExtractor,
	storage port.ObjectStorage,
	cfg *config.S3Config,
) service.ExtractionService {
	return service.NewExtractionService(invoiceRepo, promptRepo, vision, storage, cfg)
}

func TestExtractionService_Save_NewImage_Persists(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	content := pngContent()
	hash := contentHash(content)
	file, header := createMultipartFile("nota.png", content, "image/png")
	defer file.Close()

	promptRepo.On("Get", mock.Anything).Return(nil, domain.ErrNotFound)
	vision.On("ExtractText", mock.Anything, mock.AnythingOfType("port.VisionInput")).
		Return("```json\n{\"cnpj\": \"12345678000199\", \"data\": \"01/01/2024\", \"valor\": \"99.90\"}\n```", nil)
	invoiceRepo.On("FindByFingerprint", mock.Anything, hash).Return([]dedup.Record{}, nil)
	invoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Invoice).ID = 42
		}).Return(nil)

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   true,
	})

	require.NoError(t, err)
	assert.True(t, result.Persisted)
	assert.Equal(t, int64(42), result.Invoice.ID)
	assert.Equal(t, hash, result.Invoice.ImageHash)
	assert.Equal(t, domain.StatusPending, result.Invoice.Status)
	require.NotNil(t, result.Invoice.CNPJ)
	assert.Equal(t, "12345678000199", *result.Invoice.CNPJ)
	require.NotNil(t, result.Invoice.TotalAmount)
	assert.Equal(t, 99.90, *result.Invoice.TotalAmount)

	invoiceRepo.AssertExpectations(t)
	vision.AssertExpectations(t)
}

func TestExtractionService_Save_DuplicateImage_Rejected(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	content := pngContent()
	hash := contentHash(content)
	file, header := createMultipartFile("nota.png", content, "image/png")
	defer file.Close()

	promptRepo.On("Get", mock.Anything).Return(nil, domain.ErrNotFound)
	vision.On("ExtractText", mock.Anything, mock.AnythingOfType("port.VisionInput")).
		Return(`{"cnpj": "12345678000199", "data": "01/01/2024", "valor": 99.90}`, nil)
	invoiceRepo.On("FindByFingerprint", mock.Anything, hash).
		Return([]dedup.Record{{ID: 7, Status: domain.StatusProcessed}}, nil)

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   true,
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrDuplicateImage)
	invoiceRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExtractionService_Check_ExistingImage_EchoesStatus(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	content := jpegContent()
	hash := contentHash(content)
	file, header := createMultipartFile("nota.jpg", content, "image/jpeg")
	defer file.Close()

	promptRepo.On("Get", mock.Anything).Return(nil, domain.ErrNotFound)
	vision.On("ExtractText", mock.Anything, mock.AnythingOfType("port.VisionInput")).
		Return(`{"cnpj": "12345678000199", "data": "01/01/2024", "valor": 50}`, nil)
	invoiceRepo.On("FindByFingerprint", mock.Anything, hash).
		Return([]dedup.Record{{ID: 3, Status: domain.StatusProcessed}}, nil)

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   false,
	})

	require.NoError(t, err)
	assert.False(t, result.Persisted)
	assert.Equal(t, domain.StatusProcessed, result.Invoice.Status)
	invoiceRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExtractionService_Check_NewImage_NotPersisted(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	content := pngContent()
	hash := contentHash(content)
	file, header := createMultipartFile("nota.png", content, "image/png")
	defer file.Close()

	promptRepo.On("Get", mock.Anything).Return(nil, domain.ErrNotFound)
	vision.On("ExtractText", mock.Anything, mock.AnythingOfType("port.VisionInput")).
		Return(`{"cnpj": null, "data": "02/02/2024", "valor": null}`, nil)
	invoiceRepo.On("FindByFingerprint", mock.Anything, hash).Return([]dedup.Record{}, nil)

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   false,
	})

	require.NoError(t, err)
	assert.False(t, result.Persisted)
	assert.Equal(t, domain.StatusChecking, result.Invoice.Status)
	assert.Nil(t, result.Invoice.CNPJ)
	require.NotNil(t, result.Invoice.IssueDate)
	assert.Equal(t, "02/02/2024", *result.Invoice.IssueDate)
	invoiceRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExtractionService_MalformedModelResponse(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	file, header := createMultipartFile("nota.png", pngContent(), "image/png")
	defer file.Close()

	promptRepo.On("Get", mock.Anything).Return(nil, domain.ErrNotFound)
	vision.On("ExtractText", mock.Anything, mock.AnythingOfType("port.VisionInput")).
		Return("I could not read this image, sorry.", nil)

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   true,
	})

	assert.Nil(t, result)
	var malformed *extract.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "I could not read this image, sorry.", malformed.RawText)
	invoiceRepo.AssertNotCalled(t, "FindByFingerprint", mock.Anything, mock.Anything)
}

func TestExtractionService_UnsupportedFileType(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	file, header := createMultipartFile("notes.txt", []byte("plain text content here"), "text/plain")
	defer file.Close()

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   true,
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	vision.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestExtractionService_SpoofedExtension(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	// A .png name over non-image bytes fails the magic-byte sniff.
	file, header := createMultipartFile("nota.png", []byte("plain text pretending to be an image"), "image/png")
	defer file.Close()

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   true,
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	vision.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestExtractionService_FileTooLarge(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	cfg.MaxFileSizeMB = 1
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	file, header := createMultipartFile("nota.png", pngContent(), "image/png")
	defer file.Close()
	header.Size = 2 * 1024 * 1024

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   true,
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestExtractionService_ConfiguredPromptUsed(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	content := pngContent()
	file, header := createMultipartFile("nota.png", content, "image/png")
	defer file.Close()

	var captured port.VisionInput
	promptRepo.On("Get", mock.Anything).
		Return(&domain.PromptConfig{ID: 1, Prompt: "custom extraction prompt"}, nil)
	vision.On("ExtractText", mock.Anything, mock.AnythingOfType("port.VisionInput")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(port.VisionInput)
		}).
		Return(`{"cnpj": null, "data": null, "valor": null}`, nil)
	invoiceRepo.On("FindByFingerprint", mock.Anything, mock.AnythingOfType("string")).
		Return([]dedup.Record{}, nil)

	_, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   false,
	})

	require.NoError(t, err)
	assert.Equal(t, "custom extraction prompt", captured.Prompt)
	assert.Equal(t, "image/png", captured.ContentType)
	assert.Equal(t, content, captured.ImageBytes)
}

func TestExtractionService_Save_ArchivesImage(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	storage := new(mocks.MockObjectStorage)
	cfg := testS3Config()
	cfg.Bucket = "notascan-archive"
	svc := newExtractionService(invoiceRepo, promptRepo, vision, storage, &cfg)

	content := pngContent()
	hash := contentHash(content)
	file, header := createMultipartFile("nota.png", content, "image/png")
	defer file.Close()

	promptRepo.On("Get", mock.Anything).Return(nil, domain.ErrNotFound)
	vision.On("ExtractText", mock.Anything, mock.AnythingOfType("port.VisionInput")).
		Return(`{"cnpj": "12345678000199", "data": "01/01/2024", "valor": 10}`, nil)
	invoiceRepo.On("FindByFingerprint", mock.Anything, hash).Return([]dedup.Record{}, nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{Location: "https://s3/notascan-archive/invoices/" + hash + ".png"}, nil)
	invoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   true,
	})

	require.NoError(t, err)
	require.NotNil(t, result.Invoice.StorageKey)
	assert.Equal(t, "invoices/"+hash+".png", *result.Invoice.StorageKey)
	storage.AssertExpectations(t)
}

func TestExtractionService_Save_ArchiveFailure_StillPersists(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	storage := new(mocks.MockObjectStorage)
	cfg := testS3Config()
	cfg.Bucket = "notascan-archive"
	svc := newExtractionService(invoiceRepo, promptRepo, vision, storage, &cfg)

	content := pngContent()
	hash := contentHash(content)
	file, header := createMultipartFile("nota.png", content, "image/png")
	defer file.Close()

	promptRepo.On("Get", mock.Anything).Return(nil, domain.ErrNotFound)
	vision.On("ExtractText", mock.Anything, mock.AnythingOfType("port.VisionInput")).
		Return(`{"cnpj": "12345678000199", "data": "01/01/2024", "valor": 10}`, nil)
	invoiceRepo.On("FindByFingerprint", mock.Anything, hash).Return([]dedup.Record{}, nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(nil, errors.New("s3 unavailable"))
	invoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   true,
	})

	require.NoError(t, err)
	assert.True(t, result.Persisted)
	assert.Nil(t, result.Invoice.StorageKey)
}

func TestExtractionService_Save_ConcurrentDuplicate_CreateFails(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	content := pngContent()
	hash := contentHash(content)
	file, header := createMultipartFile("nota.png", content, "image/png")
	defer file.Close()

	promptRepo.On("Get", mock.Anything).Return(nil, domain.ErrNotFound)
	vision.On("ExtractText", mock.Anything, mock.AnythingOfType("port.VisionInput")).
		Return(`{"cnpj": "12345678000199", "data": "01/01/2024", "valor": 10}`, nil)
	// The lookup races: another request inserted the same hash between the
	// check and the write, so the unique index rejects the insert.
	invoiceRepo.On("FindByFingerprint", mock.Anything, hash).Return([]dedup.Record{}, nil)
	invoiceRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).
		Return(domain.ErrDuplicateImage)

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   true,
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrDuplicateImage)
}

func TestExtractionService_VisionFailure(t *testing.T) {
	invoiceRepo := new(mocks.MockInvoiceRepo)
	promptRepo := new(mocks.MockPromptConfigRepo)
	vision := new(mocks.MockVisionExtractor)
	cfg := testS3Config()
	svc := newExtractionService(invoiceRepo, promptRepo, vision, nil, &cfg)

	file, header := createMultipartFile("nota.png", pngContent(), "image/png")
	defer file.Close()

	promptRepo.On("Get", mock.Anything).Return(nil, domain.ErrNotFound)
	vision.On("ExtractText", mock.Anything, mock.AnythingOfType("port.VisionInput")).
		Return("", errors.New("provider unavailable"))

	result, err := svc.ExtractFromImage(context.Background(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   true,
	})

	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "vision extraction")
}
