package mappers

import (
	"strings"

	"github.com/opunath26/idea-arena-server/dto"
	"github.com/opunath26/idea-arena-server/models"
	"github.com/opunath26/idea-arena-server/services"
)

func MapCreateContestReq(req dto.CreateContestReq) models.Contest {
	return models.Contest{
		CreatorEmail: strings.ToLower(strings.TrimSpace(req.CreatorEmail)),
		CreatorName:  req.CreatorName,
		Title:        strings.TrimSpace(req.ContestTitle),
		ContestType:  req.ContestType,
		Description:  req.Description,
		Image:        req.Image,
		PrizeMoney:   req.PrizeMoney,
		CreationFee:  req.CreationFee,
		Deadline:     req.Deadline,
	}
}

func MapUpdateContestReq(req dto.UpdateContestReq) services.ContestUpdate {
	return services.ContestUpdate{
		Title:       req.ContestTitle,
		ContestType: req.ContestType,
		Description: req.Description,
		Image:       req.Image,
		PrizeMoney:  req.PrizeMoney,
		CreationFee: req.CreationFee,
		Deadline:    req.Deadline,
	}
}

func MapCreateCandidateReq(req dto.CreateCandidateReq) models.Candidate {
	return models.Candidate{
		Name:        strings.TrimSpace(req.Name),
		Email:       req.Email,
		ContestType: req.ContestType,
	}
}

func MapCreateUserReq(req dto.CreateUserReq) models.User {
	return models.User{
		Email:    req.Email,
		Name:     strings.TrimSpace(req.Name),
		PhotoURL: req.PhotoURL,
	}
}
