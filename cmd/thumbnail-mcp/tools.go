package main

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fpang/yt-thumbnail-wizard/internal/auth"
	"github.com/fpang/yt-thumbnail-wizard/internal/generate"
	"github.com/fpang/yt-thumbnail-wizard/internal/local"
	"github.com/fpang/yt-thumbnail-wizard/internal/style"
)

type tools struct {
	env   *local.Env
	owner string
}

type listStylesInput struct{}

type listStylesOutput struct {
	Styles  []style.Option `json:"styles"`
	Warning string         `json:"warning,omitempty"`
}

func (t *tools) listStyles(ctx context.Context, req *mcp.CallToolRequest, in listStylesInput) (*mcp.CallToolResult, listStylesOutput, error) {
	cat := t.env.Styles.Refresh(ctx)
	return nil, listStylesOutput{Styles: cat.Options, Warning: cat.Warning}, nil
}

type resolveStyleInput struct {
	ID string `json:"id" jsonschema:"style id as returned by list_styles"`
}

type resolveStyleOutput struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	Found       bool   `json:"found"`
}

func (t *tools) resolveStyle(ctx context.Context, req *mcp.CallToolRequest, in resolveStyleInput) (*mcp.CallToolResult, resolveStyleOutput, error) {
	if len(t.env.Styles.Options()) == 0 {
		t.env.Styles.Refresh(ctx)
	}
	url, ok := t.env.Styles.PreviewURL(in.ID)
	return nil, resolveStyleOutput{
		ID:          in.ID,
		DisplayName: style.DisplayName(in.ID),
		PreviewURL:  url,
		Found:       ok,
	}, nil
}

type generateInput struct {
	FaceImage        string `json:"faceImage" jsonschema:"URL or data: URI of the face photo"`
	VideoTitle       string `json:"videoTitle" jsonschema:"title of the video"`
	VideoDescription string `json:"videoDescription,omitempty" jsonschema:"what the video is about"`
	ThumbnailDetails string `json:"thumbnailDetails,omitempty" jsonschema:"what the thumbnail should show"`
	ThumbnailText    string `json:"thumbnailText,omitempty" jsonschema:"text overlay"`
	Style            string `json:"style,omitempty" jsonschema:"style id from list_styles"`
}

func (t *tools) generateThumbnail(ctx context.Context, req *mcp.CallToolRequest, in generateInput) (*mcp.CallToolResult, generate.Response, error) {
	if t.owner != "" {
		ctx = auth.WithOwner(ctx, t.owner)
	}
	resp, err := t.env.Generate.Generate(ctx, generate.Request{
		FaceImage:        in.FaceImage,
		VideoTitle:       in.VideoTitle,
		VideoDescription: in.VideoDescription,
		ThumbnailDetails: in.ThumbnailDetails,
		ThumbnailText:    in.ThumbnailText,
		Style:            in.Style,
	})
	if err != nil {
		return nil, generate.Response{}, errors.New(generate.ClientMessage(err))
	}
	return nil, *resp, nil
}
